package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
)

// fakeStep is one scripted provider response.
type fakeStep struct {
	text  string
	calls []llms.ToolCall
	err   error
}

// fakeProvider replays a script and records every thread it was given.
// Generating past the script's end fails, so a test that expects no LLM
// call just leaves the script empty.
type fakeProvider struct {
	mu      sync.Mutex
	script  []fakeStep
	idx     int
	threads [][]llms.Message
	block   chan struct{}
	active  int
	maxSeen int
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llms.Message, defs []llms.ToolDefinition) (string, []llms.ToolCall, int, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	thread := make([]llms.Message, len(messages))
	copy(thread, messages)
	p.threads = append(p.threads, thread)

	if p.idx >= len(p.script) {
		p.active--
		p.mu.Unlock()
		return "", nil, 0, fmt.Errorf("fake provider script exhausted at call %d", p.idx+1)
	}
	step := p.script[p.idx]
	p.idx++
	p.mu.Unlock()

	if p.block != nil {
		<-p.block
	}

	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	return step.text, step.calls, 10, step.err
}

func (p *fakeProvider) GetModelName() string { return "fake-model" }
func (p *fakeProvider) Close() error         { return nil }

// fakeProviders resolves instance names the way llms.Registry does.
type fakeProviders map[string]llms.Provider

func (f fakeProviders) GetProvider(name string) (llms.Provider, error) {
	p, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("llm provider '%s' not found", name)
	}
	return p, nil
}

// intentJSON is a canned classifier response body.
func intentJSON(intent string) string {
	return fmt.Sprintf(`{"intent": %q, "confidence": 0.9, "rationale_ar": "اختبار"}`, intent)
}

// fakeStore is an in-memory SessionStore.
type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	saves    int
	saveErr  error
	loadErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*session.Session{}}
}

func (s *fakeStore) GetOrCreate(ctx context.Context, sessionID string) (*session.Session, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess, nil
	}
	sess := session.New(sessionID)
	s.sessions[sessionID] = sess
	return sess, nil
}

func (s *fakeStore) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[sess.ID] = sess
	return nil
}

// seed installs a prepared session under its own id.
func (s *fakeStore) seed(sess *session.Session) *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// stubTool replays canned results, remembering the arguments it saw.
type stubTool struct {
	name    string
	agents  []string
	results []tools.ToolResult
	idx     int
	args    []map[string]interface{}
}

func (t *stubTool) GetInfo() tools.ToolInfo {
	return tools.ToolInfo{Name: t.name, Description: "stub " + t.name, Agents: t.agents}
}

func (t *stubTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (tools.ToolResult, error) {
	t.args = append(t.args, args)
	i := t.idx
	if i >= len(t.results) {
		i = len(t.results) - 1
	}
	t.idx++
	return t.results[i], nil
}

func jsonResult(name, content string) tools.ToolResult {
	return tools.ToolResult{Success: true, Content: content, ToolName: name}
}

// testConfig keeps the restaurant always open so turns never hit the hours
// gate unless a test configures it on purpose.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Restaurant.SetDefaults()
	cfg.Session.SetDefaults()
	cfg.Restaurant.OpeningHour = 0
	cfg.Restaurant.ClosingHour = 24
	return cfg
}

func testOrchestrator(store SessionStore, providers fakeProviders, stubs ...tools.Tool) *Orchestrator {
	reg := tools.NewToolRegistry()
	for _, st := range stubs {
		if err := reg.RegisterTool(st); err != nil {
			panic(err)
		}
	}
	return New(store, providers, reg, testConfig())
}
