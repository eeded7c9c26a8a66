package llms

import (
	"fmt"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/registry"
)

// ============================================================================
// LLM REGISTRY
// ============================================================================

// Registry manages named provider instances. The service registers one per
// llms config entry (chat, intent, summarizer).
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty LLM registry.
func NewRegistry() *Registry {
	return &Registry{
		BaseRegistry: registry.NewBaseRegistry[Provider](),
	}
}

// CreateFromConfig builds a provider for cfg and registers it under name.
func (r *Registry) CreateFromConfig(name string, cfg *config.LLMConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("llm name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("llm config cannot be nil")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid llm config: %w", err)
	}

	var provider Provider
	var err error

	switch cfg.Provider {
	case "openrouter", "openai":
		provider, err = NewOpenRouterProviderFromConfig(cfg)
	case "anthropic":
		provider, err = NewAnthropicProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register llm: %w", err)
	}

	return provider, nil
}

// GetProvider retrieves a provider by name, erroring when missing.
func (r *Registry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("llm provider '%s' not found", name)
	}
	return provider, nil
}

// BuildFromConfig registers a provider for every entry in the llms config
// section and returns the registry.
func BuildFromConfig(cfg *config.Config) (*Registry, error) {
	reg := NewRegistry()
	for name := range cfg.LLMs {
		llmCfg := cfg.LLMs[name]
		if _, err := reg.CreateFromConfig(name, &llmCfg); err != nil {
			return nil, fmt.Errorf("llm %q: %w", name, err)
		}
	}
	return reg, nil
}

// Close closes every registered provider.
func (r *Registry) Close() error {
	var firstErr error
	for _, provider := range r.List() {
		if err := provider.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
