package agent

import (
	"context"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/observability"
)

func recordLLMMetrics(ctx context.Context, llm string, started time.Time, err error) {
	metrics := observability.GetGlobalMetrics()
	if metrics == nil {
		return
	}
	metrics.RecordLLMRequest(ctx, llm, time.Since(started), err)
}

func recordToolMetrics(ctx context.Context, tool string, success bool) {
	metrics := observability.GetGlobalMetrics()
	if metrics == nil {
		return
	}
	metrics.RecordToolCall(ctx, tool, success)
}
