package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records shard metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordSlotCreated records a slot inserted by a thread's first Local call.
	RecordSlotCreated(ctx context.Context, cell, policy string)

	// RecordSlotRemoved records a slot removed at thread exit.
	RecordSlotRemoved(ctx context.Context, cell, policy string)

	// RecordSlotRetained records a slot retained at thread exit.
	RecordSlotRetained(ctx context.Context, cell, policy string)

	// RecordForEach records a traversal with the number of slots visited.
	RecordForEach(ctx context.Context, cell string, visited int, duration time.Duration)

	// RecordConstructError records a failed value construction.
	RecordConstructError(ctx context.Context, cell string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	slotsCreated   metric.Int64Counter
	slotsRemoved   metric.Int64Counter
	slotsRetained  metric.Int64Counter
	forEachCalls   metric.Int64Counter
	forEachVisited metric.Int64Histogram
	forEachLatency metric.Float64Histogram
	constructErrs  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("shard")

	slotsCreated, err := meter.Int64Counter("shard.slot.created",
		metric.WithDescription("Number of per-thread slots created"),
	)
	if err != nil {
		return nil, err
	}

	slotsRemoved, err := meter.Int64Counter("shard.slot.removed",
		metric.WithDescription("Number of slots removed at thread exit"),
	)
	if err != nil {
		return nil, err
	}

	slotsRetained, err := meter.Int64Counter("shard.slot.retained",
		metric.WithDescription("Number of slots retained after thread exit"),
	)
	if err != nil {
		return nil, err
	}

	forEachCalls, err := meter.Int64Counter("shard.foreach.calls",
		metric.WithDescription("Number of ForEach traversals"),
	)
	if err != nil {
		return nil, err
	}

	forEachVisited, err := meter.Int64Histogram("shard.foreach.visited",
		metric.WithDescription("Slots visited per ForEach traversal"),
	)
	if err != nil {
		return nil, err
	}

	forEachLatency, err := meter.Float64Histogram("shard.foreach.latency_ms",
		metric.WithDescription("ForEach traversal latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	constructErrs, err := meter.Int64Counter("shard.construct.errors",
		metric.WithDescription("Number of failed value constructions"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		slotsCreated:   slotsCreated,
		slotsRemoved:   slotsRemoved,
		slotsRetained:  slotsRetained,
		forEachCalls:   forEachCalls,
		forEachVisited: forEachVisited,
		forEachLatency: forEachLatency,
		constructErrs:  constructErrs,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before the first call:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func slotAttrs(cell, policy string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("cell", cell),
		attribute.String("policy", policy),
	)
}

// RecordSlotCreated records a slot creation.
func (m *otelMetrics) RecordSlotCreated(ctx context.Context, cell, policy string) {
	m.slotsCreated.Add(ctx, 1, slotAttrs(cell, policy))
}

// RecordSlotRemoved records a slot removal.
func (m *otelMetrics) RecordSlotRemoved(ctx context.Context, cell, policy string) {
	m.slotsRemoved.Add(ctx, 1, slotAttrs(cell, policy))
}

// RecordSlotRetained records a slot retention.
func (m *otelMetrics) RecordSlotRetained(ctx context.Context, cell, policy string) {
	m.slotsRetained.Add(ctx, 1, slotAttrs(cell, policy))
}

// RecordForEach records a traversal.
func (m *otelMetrics) RecordForEach(ctx context.Context, cell string, visited int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("cell", cell))
	m.forEachCalls.Add(ctx, 1, attrs)
	m.forEachVisited.Record(ctx, int64(visited), attrs)
	m.forEachLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordConstructError records a construction failure.
func (m *otelMetrics) RecordConstructError(ctx context.Context, cell string) {
	m.constructErrs.Add(ctx, 1, metric.WithAttributes(attribute.String("cell", cell)))
}
