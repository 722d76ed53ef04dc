package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordSlotCreated(_ context.Context, _, _ string) {}
func (NoopMetrics) RecordSlotRemoved(_ context.Context, _, _ string) {}
func (NoopMetrics) RecordSlotRetained(_ context.Context, _, _ string) {}
func (NoopMetrics) RecordForEach(_ context.Context, _ string, _ int, _ time.Duration) {}
func (NoopMetrics) RecordConstructError(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartForEachSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartForEachSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
