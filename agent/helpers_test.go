package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// fakeStep is one scripted Generate response.
type fakeStep struct {
	text   string
	calls  []llms.ToolCall
	tokens int
	err    error
}

// fakeProvider replays a script and records every thread it was shown.
type fakeProvider struct {
	script  []fakeStep
	idx     int
	threads [][]llms.Message
	defs    [][]llms.ToolDefinition
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llms.Message, defs []llms.ToolDefinition) (string, []llms.ToolCall, int, error) {
	thread := make([]llms.Message, len(messages))
	copy(thread, messages)
	p.threads = append(p.threads, thread)
	p.defs = append(p.defs, defs)

	if p.idx >= len(p.script) {
		return "", nil, 0, fmt.Errorf("fake provider script exhausted at call %d", p.idx+1)
	}
	step := p.script[p.idx]
	p.idx++
	return step.text, step.calls, step.tokens, step.err
}

func (p *fakeProvider) GetModelName() string { return "fake-model" }

func (p *fakeProvider) Close() error { return nil }

// fakeProviders satisfies ProviderGetter over a fixed name map.
type fakeProviders map[string]llms.Provider

func (f fakeProviders) GetProvider(name string) (llms.Provider, error) {
	p, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	return p, nil
}

func chatProviders(p llms.Provider) fakeProviders {
	return fakeProviders{config.LLMChat: p}
}

// stubTool replays scripted results and records the arguments it saw.
type stubTool struct {
	name    string
	agents  []string
	results []tools.ToolResult
	errs    []error
	idx     int
	args    []map[string]interface{}
}

func (t *stubTool) GetInfo() tools.ToolInfo {
	return tools.ToolInfo{
		Name:        t.name,
		Description: "stub tool for runner tests",
		Agents:      t.agents,
	}
}

func (t *stubTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (tools.ToolResult, error) {
	t.args = append(t.args, args)
	i := t.idx
	if i >= len(t.results) {
		i = len(t.results) - 1
	}
	t.idx++
	result := t.results[i]
	var err error
	if i < len(t.errs) {
		err = t.errs[i]
	}
	return result, err
}

func okStub(name string, agents ...string) *stubTool {
	return &stubTool{
		name:   name,
		agents: agents,
		results: []tools.ToolResult{{
			Success:  true,
			Content:  `{"success":true}`,
			ToolName: name,
		}},
	}
}

func stubRegistry(t *testing.T, stubs ...*stubTool) *tools.ToolRegistry {
	t.Helper()
	reg := tools.NewToolRegistry()
	for _, stub := range stubs {
		if err := reg.RegisterTool(stub); err != nil {
			t.Fatalf("register stub tool %s: %v", stub.name, err)
		}
	}
	return reg
}

func testRunner(providers ProviderGetter, reg *tools.ToolRegistry) *Runner {
	cfg := &config.Config{}
	cfg.Restaurant.SetDefaults()
	cfg.Session.SetDefaults()
	return NewRunner(providers, reg, cfg)
}

// testPromptContext pins the clock to an afternoon inside opening hours so
// status lines are deterministic.
func testPromptContext(sess *session.Session) *PromptContext {
	rc := &config.RestaurantConfig{}
	rc.SetDefaults()
	hours := utils.NewHours(rc.OpeningHour, rc.ClosingHour, rc.Timezone)
	return &PromptContext{
		Restaurant: rc,
		Hours:      hours,
		Now:        time.Date(2026, 8, 25, 14, 0, 0, 0, hours.Location),
		Session:    sess,
	}
}
