package agent

import (
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
)

// ============================================================================
// ROLE DEFINITIONS
// ============================================================================

// Agent describes one conversational role. Name doubles as the tool-scoping
// key in the tool registry, so a role only ever sees the tools that list it.
// Roles are defined once at package load and must be treated as read-only.
type Agent struct {
	// Name is the registry key, matching fsm.AgentFor for the role's state.
	Name string

	// State is the FSM state this role owns.
	State fsm.State

	// LLMName selects the provider instance from the llms registry.
	LLMName string

	// Handoffs is the role's handoff vocabulary. Markers outside it are
	// dropped before the orchestrator ever sees them.
	Handoffs []string

	// RecursionLimit caps LLM round trips within a single turn.
	RecursionLimit int

	// HistoryWindow is how many trailing thread messages the prompt keeps.
	HistoryWindow int

	// FallbackAr is the reply of last resort: recursion breach, tool-loop
	// abort, or a model that produced no text at all.
	FallbackAr string

	// SystemPrompt renders the role's system prompt for the current turn.
	SystemPrompt func(*PromptContext) string
}

// roles is keyed by agent name. The keys line up with fsm.AgentFor so state
// lookup is a straight map access.
var roles = map[string]*Agent{
	"greeter": {
		Name:           "greeter",
		State:          fsm.StateGreeting,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffLocation, HandoffEnd},
		RecursionLimit: 6,
		HistoryWindow:  6,
		FallbackAr:     "هلا والله! أهلاً وسهلاً فيك. تبي تطلب؟",
		SystemPrompt:   greeterPrompt,
	},
	"location": {
		Name:           "location",
		State:          fsm.StateLocation,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffOrder, HandoffCheckout},
		RecursionLimit: 6,
		HistoryWindow:  6,
		FallbackAr:     "توصيل ولا استلام من الفرع؟ وإذا توصيل، وش اسم الحي؟",
		SystemPrompt:   locationPrompt,
	},
	"order": {
		Name:           "order",
		State:          fsm.StateOrdering,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffCheckout, HandoffLocation},
		RecursionLimit: 8,
		HistoryWindow:  4,
		FallbackAr:     "وش تبي تطلب؟ قولي اسم الصنف وأساعدك.",
		SystemPrompt:   orderPrompt,
	},
	"checkout": {
		Name:           "checkout",
		State:          fsm.StateCheckout,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffLocation, HandoffOrder, HandoffEnd},
		RecursionLimit: 15,
		HistoryWindow:  6,
		FallbackAr:     "نكمل الطلب؟ أحتاج منك الاسم ورقم الجوال عشان أأكده.",
		SystemPrompt:   checkoutPrompt,
	},
	"complaint": {
		Name:           "complaint",
		State:          fsm.StateComplaint,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffGreeting, HandoffEnd},
		RecursionLimit: 4,
		HistoryWindow:  6,
		FallbackAr:     "نعتذر منك على اللي صار. ممكن تعطيني تفاصيل المشكلة عشان أوصلها للمسؤول؟",
		SystemPrompt:   complaintPrompt,
	},
	"fallback": {
		Name:           "fallback",
		State:          fsm.StateFallback,
		LLMName:        config.LLMChat,
		Handoffs:       []string{HandoffGreeting, HandoffEnd},
		RecursionLimit: 4,
		HistoryWindow:  4,
		FallbackAr:     "ممكن توضح لي وش تحتاج؟ إذا تبي تطلب أكل أنا جاهز أساعدك.",
		SystemPrompt:   fallbackPrompt,
	},
}

// ForState returns the conversational role owning a state. Internal states
// (INIT, INTENT, FINALIZED) have no conversational role and report false.
func ForState(state fsm.State) (*Agent, bool) {
	ag, ok := roles[fsm.AgentFor(state)]
	return ag, ok
}

// ByName returns a role by its registry name.
func ByName(name string) (*Agent, bool) {
	ag, ok := roles[name]
	return ag, ok
}

// RoleNames lists the conversational role names.
func RoleNames() []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	return names
}

// AllowsHandoff reports whether target is in the role's handoff vocabulary.
func (a *Agent) AllowsHandoff(target string) bool {
	for _, t := range a.Handoffs {
		if t == target {
			return true
		}
	}
	return false
}
