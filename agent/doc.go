// Package agent defines the conversational roles of the ordering flow and
// the runner that drives one agent turn through the LLM and tool loop.
//
// Each role owns a Saudi-dialect system prompt, a tool subset scoped by the
// tool registry, and a handoff vocabulary. Agents never change state
// themselves: they append a [HANDOFF:target] marker to their reply and the
// orchestrator decides whether the transition is legal. The package also
// hosts the two internal, non-conversational roles: the intent classifier
// and the history summarizer.
package agent
