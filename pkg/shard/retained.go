package shard

import (
	"github.com/randalmurphal/shard/pkg/shard/observability"
	"github.com/randalmurphal/shard/pkg/shard/registry"
)

// Retained is a Cell whose slots outlive their threads.
//
// When a thread ends, its slot is handed over to the cell instead of being
// destroyed. ForEach keeps visiting it, frozen at its last value, until
// Teardown drops it.
type Retained[V any] struct {
	core[V]
}

// NewRetained creates a retained cell with its own storage domain.
func NewRetained[V any](opts ...Option[V]) *Retained[V] {
	return &Retained[V]{core: newCore(registry.New[V](), PolicyRetained, opts)}
}

// Local returns the calling thread's value, creating it on first use.
// Same contract as Cell.Local. A slot is detached when th ends or is
// collected, and must not be written after that.
func (c *Retained[V]) Local(th *Thread) *V {
	return c.local(th)
}

// Load is Local for fallible constructors. Same contract as Cell.Load.
func (c *Retained[V]) Load(th *Thread) (*V, error) {
	return c.load(th)
}

// ForEach calls fn with every value ever created through the cell, including
// those of ended threads, until Teardown. Same locking rules as Cell.ForEach.
func (c *Retained[V]) ForEach(fn func(*V)) {
	c.forEach(fn)
}

// Len returns the number of visible slots, detached ones included.
func (c *Retained[V]) Len() int {
	return c.reg.Len()
}

// Detached returns the number of slots whose thread has ended.
func (c *Retained[V]) Detached() int {
	return c.reg.Retained()
}

// Teardown drops every detached slot and returns how many were dropped.
// Slots of running threads are kept and are still detached when their
// thread ends.
func (c *Retained[V]) Teardown() int {
	n := c.reg.Purge()
	observability.LogTeardown(c.logger, n)
	return n
}

// Name returns the cell name used in logs and metrics.
func (c *Retained[V]) Name() string {
	return c.cfg.name
}

// Policy returns PolicyRetained.
func (c *Retained[V]) Policy() Policy {
	return c.policy
}
