package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

// InitMetrics builds the Prometheus-backed meter and its instruments.
// Disabled metrics return an empty recorder whose methods do nothing and
// whose Handler is nil.
func InitMetrics(cfg config.MetricsConfig) (*PrometheusMetrics, error) {
	if !cfg.Enabled {
		return &PrometheusMetrics{}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("sawt")

	turnsTotal, err := meter.Int64Counter(
		"sawt_turns_total",
		metric.WithDescription("Conversation turns handled, labeled by FSM state"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turns counter: %w", err)
	}

	turnDuration, err := meter.Float64Histogram(
		"sawt_turn_duration_seconds",
		metric.WithDescription("End-to-end turn duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn duration histogram: %w", err)
	}

	toolCallsTotal, err := meter.Int64Counter(
		"sawt_tool_calls_total",
		metric.WithDescription("Tool invocations, labeled by tool and success"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	llmRequestsTotal, err := meter.Int64Counter(
		"sawt_llm_requests_total",
		metric.WithDescription("LLM requests, labeled by instance and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm requests counter: %w", err)
	}

	llmDuration, err := meter.Float64Histogram(
		"sawt_llm_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	ordersTotal, err := meter.Int64Counter(
		"sawt_orders_total",
		metric.WithDescription("Orders confirmed and persisted"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	return &PrometheusMetrics{
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		turnsTotal:       turnsTotal,
		turnDuration:     turnDuration,
		toolCallsTotal:   toolCallsTotal,
		llmRequestsTotal: llmRequestsTotal,
		llmDuration:      llmDuration,
		ordersTotal:      ordersTotal,
	}, nil
}

// Handler exposes the exposition endpoint for this recorder's registry, or
// nil when metrics are disabled.
func (m *PrometheusMetrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return m.handler
}
