// Package observability exposes the conversation core's Prometheus metrics
// through an OpenTelemetry meter. Call sites fetch the process-wide recorder
// with GetGlobalMetrics; a nil or disabled recorder is safe to call.
package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	globalMetrics Metrics
	metricsMu     sync.RWMutex
)

// Metrics is the recording surface the rest of the system talks to.
type Metrics interface {
	RecordTurn(ctx context.Context, state string, duration time.Duration)
	RecordToolCall(ctx context.Context, tool string, success bool)
	RecordLLMRequest(ctx context.Context, llm string, duration time.Duration, err error)
	RecordOrder(ctx context.Context)
}

// PrometheusMetrics records onto OTel instruments backed by a dedicated
// Prometheus registry. The zero value is a no-op recorder.
type PrometheusMetrics struct {
	handler http.Handler

	turnsTotal   metric.Int64Counter
	turnDuration metric.Float64Histogram

	toolCallsTotal metric.Int64Counter

	llmRequestsTotal metric.Int64Counter
	llmDuration      metric.Float64Histogram

	ordersTotal metric.Int64Counter
}

func (m *PrometheusMetrics) RecordTurn(ctx context.Context, state string, duration time.Duration) {
	if m == nil || m.turnsTotal == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("state", state))
	m.turnsTotal.Add(ctx, 1, attrs)
	if m.turnDuration != nil {
		m.turnDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

func (m *PrometheusMetrics) RecordToolCall(ctx context.Context, tool string, success bool) {
	if m == nil || m.toolCallsTotal == nil {
		return
	}

	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("success", success),
	))
}

func (m *PrometheusMetrics) RecordLLMRequest(ctx context.Context, llm string, duration time.Duration, err error) {
	if m == nil || m.llmRequestsTotal == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.llmRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("llm", llm),
		attribute.String("outcome", outcome),
	))
	if m.llmDuration != nil {
		m.llmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("llm", llm),
		))
	}
}

func (m *PrometheusMetrics) RecordOrder(ctx context.Context) {
	if m == nil || m.ordersTotal == nil {
		return
	}
	m.ordersTotal.Add(ctx, 1)
}

// SetGlobalMetrics installs the process-wide recorder.
func SetGlobalMetrics(m Metrics) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the process-wide recorder, or nil when none was
// installed.
func GetGlobalMetrics() Metrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return globalMetrics
}
