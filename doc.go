// Package sawt is the conversation core of an Arabic restaurant ordering
// service. It drives a per-session finite state machine over role-specialized
// LLM agents, runs their tool calls against the menu, delivery coverage,
// promo, and order stores, and persists every session in PostgreSQL.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/cmd/sawt@latest
//
// Create a configuration:
//
//	llms:
//	  chat:
//	    provider: "openrouter"
//	    model: "anthropic/claude-sonnet-4"
//	    api_key: "${OPENROUTER_API_KEY}"
//	database:
//	  url: "${DATABASE_URL}"
//
// Apply the schema, load the demo menu, and start the server:
//
//	sawt migrate -c config.yaml
//	sawt seed --yes -c config.yaml
//	sawt serve -c config.yaml
//
// Or talk to the bot from the terminal:
//
//	sawt chat -c config.yaml
//
// # Architecture
//
// One HTTP turn flows through:
//
//	server → orchestrator → fsm routing → agent (LLM ⇄ tools) → session store
//
// The orchestrator is the only component that moves the state machine;
// agents request transitions with handoff markers and tool side effects,
// and every move is checked against the transition table.
//
// Packages:
//
//   - config: YAML configuration with env expansion and defaults
//   - fsm: conversation states and the transition table
//   - session: the per-customer conversation state and cart
//   - llms: chat-completion providers (OpenRouter/OpenAI, Anthropic)
//   - agent: role prompts, the tool loop, intent classifier, summarizer
//   - tools: the ordering tool set exposed to the agents
//   - orchestrator: the turn pipeline over all of the above
//   - db: PostgreSQL stores (menu, coverage, promos, orders, sessions)
//   - menu: cached catalog, semantic search, vector indexing
//   - vector: Pinecone-backed embedding search
//   - server: the HTTP surface
//   - observability: Prometheus metrics
package sawt
