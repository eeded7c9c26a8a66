// Package tools implements the ordering tools the conversational agents
// call: coverage checks, menu search, cart edits, totals, and order
// confirmation. Tools are the only place business invariants are enforced;
// the model can phrase anything, but it cannot bypass these checks.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// ============================================================================
// TOOL SYSTEM INTERFACES
// ============================================================================

// Agent names used to scope tools. These match the agent registry keys.
const (
	AgentLocation = "location"
	AgentOrder    = "order"
	AgentCheckout = "checkout"
)

// ToolInfo represents metadata about a tool.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
	// Agents lists which agent roles may call this tool.
	Agents []string `json:"agents,omitempty"`
}

// ToolParameter represents a tool parameter definition.
type ToolParameter struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
}

// ToolResult represents the result of a tool execution. Content is the JSON
// payload appended to the thread for the model; the orchestrator also scans
// it for state reconciliation. Success is false for domain rejections (the
// payload then carries an Arabic message the model relays), while a non-nil
// error from Execute marks an infrastructure failure.
type ToolResult struct {
	Success  bool   `json:"success"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
	ToolName string `json:"tool_name"`
}

// Tool represents a common interface for all ordering tools. Execute may
// mutate the session; the orchestrator serializes turns per session, so no
// further locking is needed.
type Tool interface {
	// GetInfo returns metadata about the tool.
	GetInfo() ToolInfo

	// Execute runs the tool with the given arguments against the session.
	Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error)
}

// Definition converts tool metadata into the JSON Schema shape providers
// expect.
func (info ToolInfo) Definition() llms.ToolDefinition {
	properties := make(map[string]interface{}, len(info.Parameters))
	var required []string
	for _, p := range info.Parameters {
		prop := map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return llms.ToolDefinition{
		Name:        info.Name,
		Description: info.Description,
		Parameters:  schema,
	}
}

// decodeArgs maps loosely typed model arguments onto a typed args struct.
// Weak typing absorbs the model sending "3" for an integer id or 2.0 for a
// quantity.
func decodeArgs(args map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create argument decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// jsonContent marshals a tool payload for the thread.
func jsonContent(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(data)
}

// okResult wraps a successful payload.
func okResult(toolName string, payload interface{}) ToolResult {
	return ToolResult{
		Success:  true,
		Content:  jsonContent(payload),
		ToolName: toolName,
	}
}

// rejectResult wraps a domain rejection whose Arabic message the model
// relays to the customer.
func rejectResult(toolName, messageAr string) ToolResult {
	return ToolResult{
		Success: false,
		Content: jsonContent(map[string]interface{}{
			"success":    false,
			"message_ar": messageAr,
		}),
		ToolName: toolName,
	}
}

// failResult reports an infrastructure failure to the caller.
func failResult(toolName string, err error) (ToolResult, error) {
	return ToolResult{
		Success:  false,
		Error:    err.Error(),
		ToolName: toolName,
	}, err
}
