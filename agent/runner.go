package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// defaultRecursionLimit applies to roles that declare no limit.
const defaultRecursionLimit = 6

// ProviderGetter resolves a named LLM instance. *llms.Registry satisfies it.
type ProviderGetter interface {
	GetProvider(name string) (llms.Provider, error)
}

// ============================================================================
// RUNNER
// ============================================================================

// Runner executes one agent turn: it assembles the prompt, drives the
// LLM↔tool loop under the role's recursion limit, and extracts the handoff
// marker. Tools mutate the session directly; the orchestrator additionally
// reconciles state from the returned tool messages.
type Runner struct {
	providers  ProviderGetter
	tools      *tools.ToolRegistry
	restaurant *config.RestaurantConfig
	hours      utils.Hours
	window     int
}

// NewRunner wires a runner against the provider registry and tool registry.
func NewRunner(providers ProviderGetter, registry *tools.ToolRegistry, cfg *config.Config) *Runner {
	return &Runner{
		providers:  providers,
		tools:      registry,
		restaurant: &cfg.Restaurant,
		hours: utils.NewHours(cfg.Restaurant.OpeningHour, cfg.Restaurant.ClosingHour,
			cfg.Restaurant.Timezone),
		window: cfg.Session.RecentWindow,
	}
}

// TurnResult is the outcome of one agent turn.
type TurnResult struct {
	// Text is the user-visible reply with handoff markers stripped.
	Text string

	// Handoff is the extracted transition request, empty when the agent
	// stays put. Targets outside the role's vocabulary never appear here.
	Handoff string

	// Messages is the thread delta produced during the loop: assistant
	// tool-call requests followed by their tool results, in order. The
	// final user-visible reply is not included.
	Messages []llms.Message

	// TokensUsed sums provider-reported token usage across the loop.
	TokensUsed int

	// Iterations counts LLM round trips.
	Iterations int
}

// ToolMessages returns just the tool-role messages of the turn, in
// execution order. The orchestrator scans these for state reconciliation.
func (t *TurnResult) ToolMessages() []llms.Message {
	var out []llms.Message
	for _, m := range t.Messages {
		if m.Role == llms.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

// RunTurn runs the agent against the current user message. The session
// history must not yet contain userText; persistence of the user message,
// the thread delta, and the final reply stays with the caller so a failed
// turn leaves no trace. A non-nil error means the LLM was unreachable even
// after the retry; the caller apologizes to the user in that case.
func (r *Runner) RunTurn(ctx context.Context, ag *Agent, sess *session.Session, userText, hint string) (*TurnResult, error) {
	provider, err := r.providers.GetProvider(ag.LLMName)
	if err != nil {
		return nil, fmt.Errorf("resolve llm %q for agent %s: %w", ag.LLMName, ag.Name, err)
	}

	pctx := &PromptContext{
		Restaurant: r.restaurant,
		Hours:      r.hours,
		Now:        r.hours.Now(),
		Session:    sess,
	}

	window := ag.HistoryWindow
	if window <= 0 {
		window = r.window
	}

	// Prompt order: system prompt, summary, handoff hint, recent thread,
	// current user turn. Older history survives only through the summary.
	prefix := make([]llms.Message, 0, window+4)
	prefix = append(prefix, llms.SystemMessage(ag.SystemPrompt(pctx)))
	if sess.Summary != "" {
		prefix = append(prefix, llms.SystemMessage("ملخص المحادثة:\n"+sess.Summary))
	}
	if hint != "" {
		prefix = append(prefix, llms.SystemMessage("معلومات: "+hint))
	}
	prefix = append(prefix, sess.RecentHistory(window)...)
	prefix = append(prefix, llms.UserMessage(userText))

	defs := r.tools.DefinitionsFor(ag.Name)

	limit := ag.RecursionLimit
	if limit <= 0 {
		limit = defaultRecursionLimit
	}

	res := &TurnResult{}
	var reply strings.Builder
	var prevTool string
	var prevFailed bool
	completed := false
	aborted := false

loop:
	for res.Iterations < limit {
		res.Iterations++

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		thread := make([]llms.Message, 0, len(prefix)+len(res.Messages))
		thread = append(thread, prefix...)
		thread = append(thread, res.Messages...)

		genStart := time.Now()
		text, calls, tokens, genErr := provider.Generate(ctx, thread, defs)
		recordLLMMetrics(ctx, ag.LLMName, genStart, genErr)
		if genErr != nil {
			slog.Warn("llm call failed, retrying once",
				"agent", ag.Name, "session_id", sess.ID, "error", genErr)
			genStart = time.Now()
			text, calls, tokens, genErr = provider.Generate(ctx, thread, defs)
			recordLLMMetrics(ctx, ag.LLMName, genStart, genErr)
			if genErr != nil {
				return nil, fmt.Errorf("llm generate for agent %s: %w", ag.Name, genErr)
			}
		}
		res.TokensUsed += tokens

		if text != "" {
			if reply.Len() > 0 {
				reply.WriteByte('\n')
			}
			reply.WriteString(text)
		}

		if len(calls) == 0 {
			completed = true
			break
		}

		// IDs are assigned before the assistant message is recorded so the
		// request and its result always pair up on the next round trip.
		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = uuid.NewString()
			}
		}

		// The assistant message carrying the calls must precede the tool
		// results in the thread; providers reject orphaned tool messages.
		res.Messages = append(res.Messages, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})

		// Parallel calls run sequentially in listed order, each seeing the
		// session mutations of the previous one.
		for _, call := range calls {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			started := time.Now()
			result, execErr := r.tools.ExecuteTool(ctx, sess, call.Name, call.Arguments)
			content := result.Content
			if content == "" {
				content = errorContent(result, execErr)
			}
			res.Messages = append(res.Messages, llms.ToolMessage(call.ID, call.Name, content))

			failed := execErr != nil || !result.Success
			recordToolMetrics(ctx, call.Name, !failed)
			slog.Debug("tool executed",
				"tool", call.Name, "session_id", sess.ID,
				"success", !failed, "duration", time.Since(started))
			if execErr != nil {
				slog.Warn("tool execution failed",
					"tool", call.Name, "session_id", sess.ID, "error", execErr)
			}

			// Failures are never retried in the loop; the model sees the
			// {success:false} payload and recovers in conversation. The
			// same tool failing twice in a row ends the turn instead.
			if failed && prevFailed && call.Name == prevTool {
				slog.Warn("tool failed on consecutive calls, aborting turn",
					"tool", call.Name, "agent", ag.Name, "session_id", sess.ID)
				aborted = true
				break loop
			}
			prevTool, prevFailed = call.Name, failed
		}
	}

	target, cleaned := ExtractHandoff(reply.String())
	if target != "" && !ag.AllowsHandoff(target) {
		slog.Warn("handoff outside role vocabulary, dropped",
			"agent", ag.Name, "target", target, "session_id", sess.ID)
		target = ""
	}

	if !completed {
		if !aborted {
			slog.Warn("recursion limit reached",
				"agent", ag.Name, "limit", limit, "session_id", sess.ID)
		}
		// A turn that never reached a clean stop must not move the FSM.
		target = ""
	}
	if cleaned == "" {
		slog.Warn("agent produced no user-visible text, using role fallback",
			"agent", ag.Name, "session_id", sess.ID)
		cleaned = ag.FallbackAr
	}

	res.Text = cleaned
	res.Handoff = target
	return res, nil
}

// errorContent builds the {success:false} payload for tool dispatch that
// produced no content of its own (unknown tool, decode failure, store
// error without an Arabic message).
func errorContent(result tools.ToolResult, err error) string {
	msg := result.Error
	if msg == "" && err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "tool returned no content"
	}
	payload, marshalErr := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
	if marshalErr != nil {
		return `{"success":false,"error":"tool failed"}`
	}
	return string(payload)
}
