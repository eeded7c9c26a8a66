package main

import (
	"fmt"
	"log/slog"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/menu"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/observability"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/orchestrator"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/vector"
)

// serviceRuntime bundles everything a running command needs: the stores,
// the LLM registry, the tool set, and the orchestrator on top of them.
type serviceRuntime struct {
	cfg       *config.Config
	store     *db.Store
	providers *llms.Registry
	vec       vector.Provider
	metrics   *observability.PrometheusMetrics
	orch      *orchestrator.Orchestrator
}

// buildRuntime wires the full service from configuration. The caller owns
// the returned runtime and must Close it.
func buildRuntime(cfg *config.Config) (*serviceRuntime, error) {
	sqlDB, err := db.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	store := db.NewStore(sqlDB, cfg.Session.Expiry)

	providers := llms.NewRegistry()
	for name := range cfg.LLMs {
		llmCfg := cfg.LLMs[name]
		if _, err := providers.CreateFromConfig(name, &llmCfg); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("llm %q: %w", name, err)
		}
	}

	var vec vector.Provider
	if cfg.Vector.Enabled {
		provider, err := vector.NewPineconeProvider(&cfg.Vector)
		if err != nil {
			_ = providers.Close()
			_ = store.Close()
			return nil, err
		}
		vec = provider
	} else {
		slog.Info("vector search disabled, menu search uses SQL matching only")
	}

	catalog := menu.NewCatalog(store.Menu, menu.DefaultCacheTTL)
	searcher := menu.NewSearcher(catalog, vec, &cfg.Vector)

	registry, err := tools.NewOrderingRegistry(tools.Deps{
		Catalog:    catalog,
		Searcher:   searcher,
		Coverage:   store.Coverage,
		Promos:     store.Promos,
		Orders:     store.Orders,
		Restaurant: &cfg.Restaurant,
	})
	if err != nil {
		_ = providers.Close()
		_ = store.Close()
		return nil, err
	}

	metrics, err := observability.InitMetrics(cfg.Metrics)
	if err != nil {
		_ = providers.Close()
		_ = store.Close()
		return nil, err
	}
	observability.SetGlobalMetrics(metrics)

	return &serviceRuntime{
		cfg:       cfg,
		store:     store,
		providers: providers,
		vec:       vec,
		metrics:   metrics,
		orch:      orchestrator.New(store.Sessions, providers, registry, cfg),
	}, nil
}

// Close releases the runtime's connections in reverse construction order.
func (rt *serviceRuntime) Close() {
	if rt.vec != nil {
		if err := rt.vec.Close(); err != nil {
			slog.Warn("vector provider close failed", "error", err)
		}
	}
	if err := rt.providers.Close(); err != nil {
		slog.Warn("llm registry close failed", "error", err)
	}
	if err := rt.store.Close(); err != nil {
		slog.Warn("database close failed", "error", err)
	}
}
