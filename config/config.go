// Package config provides configuration types and loading for the ordering
// service. A single YAML file is the entry point; every section supports
// ${VAR} environment expansion and carries SetDefaults/Validate so a
// minimal file (or none at all) still yields a runnable configuration.
package config

import (
	"fmt"
	"os"
)

// Well-known LLM instance names. The orchestrator resolves these from the
// llms section; DefaultConfig materializes all three from environment
// variables when no file is given.
const (
	LLMChat       = "chat"
	LLMIntent     = "intent"
	LLMSummarizer = "summarizer"
)

// ============================================================================
// ROOT CONFIGURATION
// ============================================================================

// Config is the complete service configuration.
type Config struct {
	Version     string `yaml:"version,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	LLMs       map[string]LLMConfig `yaml:"llms,omitempty"`
	Database   DatabaseConfig       `yaml:"database,omitempty"`
	Vector     VectorConfig         `yaml:"vector,omitempty"`
	Restaurant RestaurantConfig     `yaml:"restaurant,omitempty"`
	Session    SessionConfig        `yaml:"session,omitempty"`
	Server     ServerConfig         `yaml:"server,omitempty"`
	Metrics    MetricsConfig        `yaml:"metrics,omitempty"`
	Logging    LoggingConfig        `yaml:"logging,omitempty"`
}

// SetDefaults implements SetDefaults for Config
func (c *Config) SetDefaults() {
	if c.Name == "" {
		c.Name = "sawt"
	}
	if c.LLMs == nil {
		c.LLMs = make(map[string]LLMConfig)
	}

	// Materialize the three required instances so a file that configures
	// only "chat" still gets a classifier and a summarizer derived from it.
	base, hasBase := c.LLMs[LLMChat]
	if !hasBase {
		base = LLMConfig{APIKey: os.Getenv("OPENROUTER_API_KEY")}
		if key := os.Getenv("ANTHROPIC_API_KEY"); base.APIKey == "" && key != "" {
			base = LLMConfig{Provider: "anthropic", APIKey: key}
		}
		if model := os.Getenv("OPENROUTER_MODEL"); model != "" {
			base.Model = model
		}
	}
	base.SetDefaults()
	c.LLMs[LLMChat] = base

	if _, ok := c.LLMs[LLMIntent]; !ok {
		intent := base
		intent.Temperature = 0.1
		intent.JSONMode = true
		intent.MaxTokens = 300
		c.LLMs[LLMIntent] = intent
	}
	if _, ok := c.LLMs[LLMSummarizer]; !ok {
		summarizer := base
		summarizer.Temperature = 0.3
		summarizer.JSONMode = false
		summarizer.MaxTokens = 500
		c.LLMs[LLMSummarizer] = summarizer
	}
	for name, llm := range c.LLMs {
		llm.SetDefaults()
		c.LLMs[name] = llm
	}

	if c.Database.URL == "" {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			c.Database.URL = url
		}
	}
	c.Database.SetDefaults()

	if c.Vector.APIKey == "" {
		if key := os.Getenv("PINECONE_API_KEY"); key != "" {
			c.Vector.APIKey = key
			c.Vector.Enabled = true
		}
	}
	if c.Vector.IndexHost == "" {
		c.Vector.IndexHost = os.Getenv("PINECONE_INDEX_HOST")
	}
	c.Vector.SetDefaults()

	c.Restaurant.SetDefaults()
	c.Session.SetDefaults()
	c.Server.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate implements Validate for Config
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llm %q validation failed: %w", name, err)
		}
	}
	for _, required := range []string{LLMChat, LLMIntent, LLMSummarizer} {
		if _, ok := c.LLMs[required]; !ok {
			return fmt.Errorf("llm %q is required", required)
		}
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector validation failed: %w", err)
	}
	if err := c.Restaurant.Validate(); err != nil {
		return fmt.Errorf("restaurant validation failed: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics validation failed: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging validation failed: %w", err)
	}
	return nil
}

// DefaultConfig builds a runnable configuration purely from environment
// variables (zero-config mode). Validation still applies, so missing API
// keys surface as errors rather than failing on the first request.
func DefaultConfig() (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
