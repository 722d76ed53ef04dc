package shard

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/randalmurphal/shard/pkg/shard/observability"
	"github.com/randalmurphal/shard/pkg/shard/registry"
)

// core is the machinery shared by Cell and Retained. The registry pointer
// doubles as the key into each thread's handle table, so two cells sharing a
// registry also share every thread's slot.
type core[V any] struct {
	reg    *registry.Registry[V]
	policy Policy
	cfg    cellConfig[V]
	logger *slog.Logger
}

func newCore[V any](reg *registry.Registry[V], policy Policy, opts []Option[V]) core[V] {
	cfg := defaultCellConfig[V]()
	for _, opt := range opts {
		opt(&cfg)
	}
	return core[V]{
		reg:    reg,
		policy: policy,
		cfg:    cfg,
		logger: observability.EnrichLogger(cfg.logger, cfg.name, policy.String()),
	}
}

func (c *core[V]) load(th *Thread) (*V, error) {
	th.mustBeRunning()
	if h, ok := th.handle(c.reg); ok {
		return h.(*registry.Slot[V]).Value(), nil
	}

	v, err := c.cfg.construct()
	if err != nil {
		c.cfg.metrics.RecordConstructError(context.Background(), c.cfg.name)
		observability.LogConstructError(c.logger, th.id, err)
		return nil, err
	}

	owner := th.id
	s := c.reg.Insert(owner, v)
	th.bind(c.reg, s, func() { c.release(owner, s) })
	// The collector must not end th before its release hook is bound.
	runtime.KeepAlive(th)

	c.cfg.metrics.RecordSlotCreated(context.Background(), c.cfg.name, c.policy.String())
	observability.LogSlotCreated(c.logger, owner, c.reg.Len())
	return s.Value(), nil
}

func (c *core[V]) local(th *Thread) *V {
	v, err := c.load(th)
	if err != nil {
		panic(err)
	}
	return v
}

// release is the thread-exit hook for one slot.
func (c *core[V]) release(owner string, s *registry.Slot[V]) {
	ctx := context.Background()
	switch c.policy {
	case PolicyRetained:
		if !c.reg.Retain(s) {
			return
		}
		c.cfg.metrics.RecordSlotRetained(ctx, c.cfg.name, c.policy.String())
		observability.LogSlotRetained(c.logger, owner, c.reg.Retained())
	default:
		if !c.reg.Remove(s) {
			return
		}
		c.cfg.metrics.RecordSlotRemoved(ctx, c.cfg.name, c.policy.String())
		observability.LogSlotRemoved(c.logger, owner, c.reg.Len())
	}
}

func (c *core[V]) forEach(fn func(*V)) {
	ctx, span := c.cfg.spans.StartForEachSpan(context.Background(), c.cfg.name, c.policy.String())
	start := time.Now()
	visited := 0
	defer func() {
		r := recover()
		var err error
		if r != nil {
			err = fmt.Errorf("foreach callback panicked: %v", r)
		}

		elapsed := time.Since(start)
		c.cfg.metrics.RecordForEach(ctx, c.cfg.name, visited, elapsed)
		observability.LogForEach(c.logger, visited, float64(elapsed.Microseconds())/1000)
		c.cfg.spans.AddSpanEvent(ctx, "traversed", attribute.Int("visited", visited))
		c.cfg.spans.EndSpanWithError(span, err)

		if r != nil {
			panic(r)
		}
	}()
	// Counted per call so a panicking callback still reports the slots reached.
	c.reg.ForEachLocked(func(v *V) {
		visited++
		fn(v)
	})
}

func (c *core[V]) rangeSlots(fn func(owner string, retained bool, v *V) bool) {
	c.reg.RangeLocked(func(s *registry.Slot[V]) bool {
		return fn(s.Owner(), s.Retained(), s.Value())
	})
}

func typeName[V any]() string {
	return reflect.TypeFor[V]().String()
}
