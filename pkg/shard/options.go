package shard

import (
	"log/slog"

	"github.com/randalmurphal/shard/pkg/shard/observability"
)

// Policy selects what happens to a thread's slot when the thread ends.
type Policy int

const (
	// PolicyTransient removes a thread's slot when the thread ends.
	PolicyTransient Policy = iota

	// PolicyRetained detaches a thread's slot when the thread ends. The slot
	// stays visible to ForEach, frozen at its last value.
	PolicyRetained
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyTransient:
		return "transient"
	case PolicyRetained:
		return "retained"
	default:
		return "unknown"
	}
}

// cellConfig holds per-cell configuration.
type cellConfig[V any] struct {
	name      string
	construct func() (V, error)
	logger    *slog.Logger
	metrics   observability.MetricsRecorder
	spans     observability.SpanManager
}

func defaultCellConfig[V any]() cellConfig[V] {
	return cellConfig[V]{
		name: typeName[V](),
		construct: func() (V, error) {
			var zero V
			return zero, nil
		},
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a cell.
type Option[V any] func(*cellConfig[V])

// WithInitial sets the value every new slot starts from.
// The value is copied into each slot; V with reference fields share them.
//
// Example:
//
//	budget := shard.New[int](shard.WithInitial(2048))
func WithInitial[V any](v V) Option[V] {
	return func(c *cellConfig[V]) {
		c.construct = func() (V, error) { return v, nil }
	}
}

// WithFactory builds each new slot's value by calling fn on the owning
// thread. Panics from fn propagate to the Local caller.
func WithFactory[V any](fn func() V) Option[V] {
	return func(c *cellConfig[V]) {
		if fn != nil {
			c.construct = func() (V, error) { return fn(), nil }
		}
	}
}

// WithConstructor builds each new slot's value with a fallible constructor.
// A returned error reaches the caller of Load unchanged, and no slot is
// created; the next call retries.
func WithConstructor[V any](fn func() (V, error)) Option[V] {
	return func(c *cellConfig[V]) {
		if fn != nil {
			c.construct = fn
		}
	}
}

// WithName sets the cell name used in logs, metrics, and spans.
// Default: the Go type name of V.
func WithName[V any](name string) Option[V] {
	return func(c *cellConfig[V]) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger enables slot lifecycle logging.
// A nil logger disables logging.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(c *cellConfig[V]) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Pass observability.NewMetricsRecorder() for OpenTelemetry.
func WithMetrics[V any](m observability.MetricsRecorder) Option[V] {
	return func(c *cellConfig[V]) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing wraps each ForEach traversal in an OpenTelemetry span.
func WithTracing[V any](enabled bool) Option[V] {
	return func(c *cellConfig[V]) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}
