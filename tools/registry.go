package tools

import (
	"context"
	"fmt"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/menu"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/registry"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// ============================================================================
// REGISTRY - TOOL SYSTEM CORE
// ============================================================================

// ToolRegistryError represents a tool registry error.
type ToolRegistryError struct {
	Component string
	Action    string
	Message   string
	Err       error
}

func (e *ToolRegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Component, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Component, e.Action, e.Message)
}

func NewToolRegistryError(component, action, message string, err error) *ToolRegistryError {
	return &ToolRegistryError{
		Component: component,
		Action:    action,
		Message:   message,
		Err:       err,
	}
}

// ToolRegistry holds the ordering tools and dispatches agent tool calls.
type ToolRegistry struct {
	*registry.BaseRegistry[Tool]
}

// NewToolRegistry creates an empty tool registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		BaseRegistry: registry.NewBaseRegistry[Tool](),
	}
}

// RegisterTool adds a tool under its own reported name.
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	info := tool.GetInfo()
	if info.Name == "" {
		return NewToolRegistryError("ToolRegistry", "RegisterTool", "tool name cannot be empty", nil)
	}
	if err := r.Register(info.Name, tool); err != nil {
		return NewToolRegistryError("ToolRegistry", "RegisterTool",
			fmt.Sprintf("failed to register tool %s", info.Name), err)
	}
	return nil
}

// GetTool retrieves a tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, error) {
	tool, exists := r.Get(name)
	if !exists {
		return nil, NewToolRegistryError("ToolRegistry", "GetTool",
			fmt.Sprintf("tool %s not found", name), nil)
	}
	return tool, nil
}

// ListTools returns metadata for every registered tool, sorted by name.
func (r *ToolRegistry) ListTools() []ToolInfo {
	var infos []ToolInfo
	for _, tool := range r.List() {
		infos = append(infos, tool.GetInfo())
	}
	return infos
}

// DefinitionsFor returns the JSON Schema tool definitions visible to one
// agent role, sorted by name so prompts are deterministic.
func (r *ToolRegistry) DefinitionsFor(agent string) []llms.ToolDefinition {
	var defs []llms.ToolDefinition
	for _, tool := range r.List() {
		info := tool.GetInfo()
		for _, allowed := range info.Agents {
			if allowed == agent {
				defs = append(defs, info.Definition())
				break
			}
		}
	}
	return defs
}

// ExecuteTool dispatches a tool call against the session. Unknown tools
// come back as a failed result so the model can recover in conversation.
func (r *ToolRegistry) ExecuteTool(ctx context.Context, sess *session.Session, toolName string, args map[string]interface{}) (ToolResult, error) {
	tool, err := r.GetTool(toolName)
	if err != nil {
		return ToolResult{
			Success:  false,
			Error:    err.Error(),
			ToolName: toolName,
		}, err
	}
	return tool.Execute(ctx, sess, args)
}

// Deps carries the stores the ordering tools are built on.
type Deps struct {
	Catalog    *menu.Catalog
	Searcher   *menu.Searcher
	Coverage   CoverageChecker
	Promos     PromoReader
	Orders     OrderWriter
	Restaurant *config.RestaurantConfig
}

// NewOrderingRegistry builds the full tool set for the ordering flow.
func NewOrderingRegistry(deps Deps) (*ToolRegistry, error) {
	r := NewToolRegistry()
	for _, tool := range []Tool{
		NewCheckDeliveryDistrictTool(deps.Coverage, deps.Restaurant),
		NewSetOrderTypeTool(deps.Coverage, deps.Restaurant),
		NewGetCoveredAreasTool(deps.Coverage, deps.Restaurant),
		NewSearchMenuTool(deps.Searcher),
		NewGetItemDetailsTool(deps.Catalog),
		NewAddToOrderTool(deps.Catalog),
		NewGetCurrentOrderTool(),
		NewUpdateOrderItemTool(),
		NewRemoveFromOrderTool(),
		NewCalculateTotalTool(deps.Promos),
		NewConfirmOrderTool(deps.Promos, deps.Orders),
	} {
		if err := r.RegisterTool(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}
