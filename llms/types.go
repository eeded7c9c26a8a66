// Package llms provides the LLM provider abstraction and its OpenRouter and
// Anthropic implementations. Providers speak native tool calling; the agent
// runner drives them through the Provider interface and never sees wire
// formats.
package llms

import "context"

// ============================================================================
// MESSAGE AND TOOL TYPES
// ============================================================================

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in a conversation thread. Tool results carry the
// ToolCallID they answer; assistant messages may carry the calls they
// requested.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// ToolCall is a provider-agnostic tool invocation request.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
	RawArgs   string                 `json:"raw_args,omitempty"`
}

// ToolDefinition describes a callable tool to the model. Parameters is a
// JSON Schema object.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ============================================================================
// PROVIDER CONTRACT
// ============================================================================

// Provider generates assistant responses, optionally requesting tool calls.
// Implementations must honor ctx cancellation on the underlying HTTP call.
type Provider interface {
	// Generate returns assistant text, any requested tool calls, and the
	// total tokens consumed by the exchange.
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error)

	// GetModelName returns the model identifier requests are sent with.
	GetModelName() string

	// Close releases provider resources.
	Close() error
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolMessage builds a tool result message answering callID.
func ToolMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: toolName}
}
