// Package orchestrator owns the conversation turn pipeline. It is the
// single authority over the state machine: agents only request transitions
// through handoff markers and tool side effects, and this package decides
// which of those requests actually move the session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/agent"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/observability"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// Canned Arabic lines for the turns that never reach a model.
const (
	apologyAr   = "عذراً، حدث خطأ في النظام. الرجاء المحاولة مرة أخرى."
	cancelledAr = "تم إلغاء الطلب ✅ إذا حبيت تطلب من جديد أنا جاهز أخدمك 🌹"
)

// hintKey stores the one-shot handoff hint between turns.
const hintKey = "handoff_hint_ar"

// ErrEmptyMessage rejects blank input before any session work happens.
var ErrEmptyMessage = errors.New("message is empty")

// SessionStore is the persistence surface a turn needs. *db.SessionStore
// satisfies it.
type SessionStore interface {
	GetOrCreate(ctx context.Context, sessionID string) (*session.Session, error)
	Save(ctx context.Context, sess *session.Session) error
}

// Orchestrator drives one turn end to end: lock, load, route, run the
// agent, reconcile tool effects, apply the handoff, summarize, persist.
type Orchestrator struct {
	store      SessionStore
	runner     *agent.Runner
	intents    *agent.IntentClassifier
	summarizer *agent.Summarizer
	hours      utils.Hours
	locks      *sessionLocks
}

// New wires the turn pipeline against the provider registry, tool registry,
// and session store.
func New(store SessionStore, providers agent.ProviderGetter, registry *tools.ToolRegistry, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		store:      store,
		runner:     agent.NewRunner(providers, registry, cfg),
		intents:    agent.NewIntentClassifier(providers),
		summarizer: agent.NewSummarizer(providers, &cfg.Session),
		hours: utils.NewHours(cfg.Restaurant.OpeningHour, cfg.Restaurant.ClosingHour,
			cfg.Restaurant.Timezone),
		locks: newSessionLocks(),
	}
}

// Turn is the outcome of one handled message.
type Turn struct {
	SessionID string
	Reply     string
	State     fsm.State
}

// HandleMessage runs one conversation turn. Turns for the same session
// serialize on a per-session lock held until the session is persisted;
// turns for different sessions proceed in parallel. A non-nil error means
// no reply could be produced at all; LLM trouble inside the turn degrades
// to an Arabic apology with the state unchanged instead.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, userText string) (*Turn, error) {
	text := utils.NormalizeNumerals(strings.TrimSpace(userText))
	if text == "" {
		return nil, ErrEmptyMessage
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release := o.locks.acquire(sessionID)
	defer release()

	sess, err := o.store.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	started := time.Now()
	reply, ranState, err := o.runPipeline(ctx, sess, text)
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordTurn(ctx, string(ranState), time.Since(started))
	}
	if err != nil {
		return nil, err
	}

	if err := o.store.Save(ctx, sess); err != nil {
		// The reply already exists and any order was committed by its own
		// transaction; losing the save costs history, not money.
		slog.Error("session save failed", "session_id", sess.ID, "error", err)
	}

	slog.Info("turn complete",
		"session_id", sess.ID, "state", sess.State,
		"duration", time.Since(started))

	return &Turn{SessionID: sess.ID, Reply: reply, State: sess.State}, nil
}

// runPipeline is the turn body between load and persist. It returns the
// reply text and the state the message was actually processed in, which is
// also the label turn metrics use.
func (o *Orchestrator) runPipeline(ctx context.Context, sess *session.Session, text string) (string, fsm.State, error) {
	// Explicit cancellation short-circuits everything. INIT and INTENT are
	// exempt: nothing is in progress there, classification reads the
	// message better.
	if sess.State != fsm.StateInit && sess.State != fsm.StateIntent &&
		fsm.CanFire(sess.State, fsm.TriggerCancel) && utils.IsCancellationAr(text) {
		from := sess.State
		slog.Info("order cancelled", "session_id", sess.ID, "state", from)
		sess.AppendUser(text)
		sess.ResetToInit()
		sess.AppendAssistant(cancelledAr)
		storeHint(sess, "")
		return cancelledAr, from, nil
	}

	// Fresh and finalized sessions silently start a new conversation.
	if sess.State == fsm.StateInit || sess.State == fsm.StateFinalized {
		o.fire(sess, fsm.TriggerStart)
	}

	// INTENT classifies and routes within the same turn; the customer never
	// sees the classification happen.
	hint := takeHint(sess)
	if sess.State == fsm.StateIntent {
		res := o.intents.Classify(ctx, text)
		slog.Info("intent classified", "session_id", sess.ID,
			"intent", res.Intent, "confidence", res.Confidence)
		o.fire(sess, res.Trigger())
	} else if sess.State == fsm.StateFallback {
		// Escape hatch: an ordering message pulls the conversation out of
		// fallback without making the customer repeat themselves.
		if res := o.intents.Classify(ctx, text); res.Intent == fsm.IntentOrdering {
			o.fire(sess, fsm.TriggerIntentOrdering)
			hint = agent.HandoffHint(fsm.StateFallback, agent.HandoffGreeting, sess)
		}
	}

	// Closed-hours gate: where the table allows restaurant_closed, a closed
	// restaurant answers with the canned message and no LLM call.
	if fsm.CanFire(sess.State, fsm.TriggerRestaurantClosed) && !o.hours.IsOpen() {
		from := sess.State
		msg := o.hours.ClosedMessageAr(o.hours.Now())
		sess.AppendUser(text)
		o.fire(sess, fsm.TriggerRestaurantClosed)
		sess.AppendAssistant(msg)
		return msg, from, nil
	}

	ag, ok := agent.ForState(sess.State)
	if !ok {
		return "", sess.State, fmt.Errorf("no agent for state %s", sess.State)
	}
	ranState := sess.State

	res, err := o.runner.RunTurn(ctx, ag, sess, text, hint)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", ranState, err
		}
		// The retry already happened inside the runner. Apologize, keep the
		// state, and put the hint back so the next attempt still has it.
		slog.Error("agent turn failed", "session_id", sess.ID,
			"agent", ag.Name, "error", err)
		storeHint(sess, hint)
		sess.AppendUser(text)
		sess.AppendAssistant(apologyAr)
		return apologyAr, ranState, nil
	}

	sess.AppendUser(text)
	for _, msg := range res.Messages {
		sess.Append(msg)
	}

	// Tool payloads are the source of truth for state effects; confirmation
	// in particular is only ever trusted from the confirm_order result.
	facts := reconcile(sess, res.ToolMessages())
	if facts.orderConfirmed {
		if fsm.CanFire(sess.State, fsm.TriggerOrderConfirmed) {
			o.fire(sess, fsm.TriggerOrderConfirmed)
		}
		if metrics := observability.GetGlobalMetrics(); metrics != nil {
			metrics.RecordOrder(ctx)
		}
		slog.Info("order confirmed", "session_id", sess.ID, "order_id", facts.orderID)
	}

	reply := res.Text
	if facts.confirmationAr != "" && reply == ag.FallbackAr {
		// A marker-only confirmation reply still carries the receipt in the
		// tool payload; prefer it over the generic line.
		reply = facts.confirmationAr
	}

	if target := o.applyHandoff(sess, ranState, res.Handoff); target != "" {
		storeHint(sess, agent.HandoffHint(ranState, target, sess))
	}

	sess.AppendAssistant(reply)

	if o.summarizer.ShouldSummarize(ranState, sess.State, sess) {
		if summary := o.summarizer.Summarize(ctx, sess); summary != "" {
			sess.Summary = summary
		}
	}

	return reply, ranState, nil
}

// fire moves the session through the transition table. An untabled trigger
// is dropped with a warning; callers that must not proceed check the result.
func (o *Orchestrator) fire(sess *session.Session, trigger fsm.Trigger) bool {
	next, err := fsm.Fire(sess.State, trigger)
	if err != nil {
		slog.Warn("transition rejected", "session_id", sess.ID,
			"state", sess.State, "trigger", trigger)
		return false
	}
	slog.Info("state transition", "session_id", sess.ID,
		"from", sess.State, "to", next, "trigger", trigger)
	sess.State = next
	return true
}

// applyHandoff maps a handoff request onto table triggers, enforcing the
// breadcrumb rules and the gates the prompts only describe. It returns the
// target that was actually applied, empty when the request was dropped.
func (o *Orchestrator) applyHandoff(sess *session.Session, from fsm.State, target string) string {
	if target == "" {
		return ""
	}
	if sess.State != from {
		// Reconciliation already moved the session (order confirmed); the
		// marker has nothing left to do.
		slog.Debug("handoff after transition ignored",
			"session_id", sess.ID, "target", target)
		return ""
	}

	switch from {
	case fsm.StateGreeting:
		switch target {
		case agent.HandoffLocation:
			if o.fire(sess, fsm.TriggerConfirmOrder) {
				return target
			}
		case agent.HandoffEnd:
			if o.fire(sess, fsm.TriggerNotOrdering) {
				return target
			}
		}

	case fsm.StateLocation:
		return o.locationForward(sess, target)

	case fsm.StateOrdering:
		switch target {
		case agent.HandoffCheckout:
			if sess.ItemCount() == 0 {
				slog.Warn("checkout handoff with empty cart dropped", "session_id", sess.ID)
				return ""
			}
			if o.fire(sess, fsm.TriggerCheckout) {
				return target
			}
		case agent.HandoffLocation:
			if o.fire(sess, fsm.TriggerChangeLocation) {
				sess.CameFromOrder = true
				return target
			}
		}

	case fsm.StateCheckout:
		switch target {
		case agent.HandoffLocation:
			if o.fire(sess, fsm.TriggerChangeLocation) {
				sess.CameFromCheckout = true
				return target
			}
		case agent.HandoffOrder:
			if o.fire(sess, fsm.TriggerModifyOrder) {
				return target
			}
		case agent.HandoffEnd:
			// Finalization is gated on the confirm_order payload, which was
			// reconciled before this point. A bare end marker is a model
			// hallucination and stays put.
			slog.Warn("end handoff without confirmed order dropped", "session_id", sess.ID)
		}

	case fsm.StateComplaint:
		switch target {
		case agent.HandoffGreeting:
			if o.fire(sess, fsm.TriggerResolved) {
				return target
			}
		case agent.HandoffEnd:
			if o.fire(sess, fsm.TriggerEscalate) {
				return target
			}
		}

	case fsm.StateFallback:
		switch target {
		case agent.HandoffGreeting:
			if o.fire(sess, fsm.TriggerIntentOrdering) {
				return target
			}
		case agent.HandoffEnd:
			if o.fire(sess, fsm.TriggerExit) {
				return target
			}
		}
	}

	slog.Warn("handoff dropped", "session_id", sess.ID,
		"state", from, "target", target)
	return ""
}

// locationForward applies a forward handoff out of LOCATION. The order type
// gate and the delivery area gate run first; only a forward that passes
// them consumes the breadcrumbs and may be redirected back to CHECKOUT.
func (o *Orchestrator) locationForward(sess *session.Session, target string) string {
	if target != agent.HandoffOrder && target != agent.HandoffCheckout {
		slog.Warn("handoff dropped", "session_id", sess.ID,
			"state", fsm.StateLocation, "target", target)
		return ""
	}

	if sess.OrderType == "" {
		slog.Warn("forward handoff without order type dropped",
			"session_id", sess.ID, "target", target)
		return ""
	}
	if sess.OrderType == session.OrderTypeDelivery && sess.Location.AreaID == nil {
		slog.Warn("delivery handoff without validated area dropped",
			"session_id", sess.ID)
		return ""
	}

	// The breadcrumb decides where forward actually lands: a customer who
	// came back from checkout returns there, everyone else goes to the
	// order flow, whichever marker the model picked.
	cameFromCheckout := sess.ConsumeCameFromCheckout()
	if target == agent.HandoffOrder && cameFromCheckout {
		target = agent.HandoffCheckout
	} else if target == agent.HandoffCheckout && !cameFromCheckout {
		target = agent.HandoffOrder
	}

	forward := fsm.TriggerAddressValid
	if sess.OrderType == session.OrderTypePickup {
		forward = fsm.TriggerPickupChosen
	}
	if !o.fire(sess, forward) {
		return ""
	}

	if target == agent.HandoffCheckout {
		if sess.ItemCount() == 0 || !o.fire(sess, fsm.TriggerCheckout) {
			return agent.HandoffOrder
		}
	}
	return target
}

func storeHint(sess *session.Session, hint string) {
	if hint == "" {
		if sess.Metadata != nil {
			delete(sess.Metadata, hintKey)
		}
		return
	}
	if sess.Metadata == nil {
		sess.Metadata = map[string]interface{}{}
	}
	sess.Metadata[hintKey] = hint
}

// takeHint consumes the one-shot hint stored by the previous turn.
func takeHint(sess *session.Session) string {
	if sess.Metadata == nil {
		return ""
	}
	hint, _ := sess.Metadata[hintKey].(string)
	delete(sess.Metadata, hintKey)
	return hint
}
