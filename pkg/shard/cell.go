package shard

import "github.com/randalmurphal/shard/pkg/shard/registry"

// Cell holds one lazily created V per thread. A thread's slot is removed
// when the thread ends, so ForEach only sees values of running threads.
type Cell[V any] struct {
	core[V]
}

// New creates a cell with its own storage domain.
//
// Example:
//
//	hits := shard.New[int]()
//	shard.Go(func(th *shard.Thread) {
//	    *hits.Local(th)++
//	})
func New[V any](opts ...Option[V]) *Cell[V] {
	return &Cell[V]{core: newCore(registry.New[V](), PolicyTransient, opts)}
}

// Local returns the calling thread's value, creating it on first use.
//
// The first call per thread builds the value and registers it under the
// cell's lock. Later calls return the same pointer without locking. The
// pointer must not be shared with other goroutines; use ForEach to read
// other threads' values.
//
// The pointer is valid while th is running. Keep th reachable until the last
// use of the pointer, for example with defer th.End(); once th is collected
// its slot is released even if the pointer is still in use.
//
// Local panics with ErrThreadEnded if th has ended, and with the constructor's
// error if the cell was built WithConstructor and construction fails.
func (c *Cell[V]) Local(th *Thread) *V {
	return c.local(th)
}

// Load is Local for fallible constructors: a construction error is returned
// unchanged and no slot is created.
func (c *Cell[V]) Load(th *Thread) (*V, error) {
	return c.load(th)
}

// ForEach calls fn with the value of every running thread that has used the
// cell. Order is unspecified.
//
// fn runs with the cell's lock held: it must not call Local, Load, or ForEach
// on this cell, and should not block. Values written by their owners
// concurrently with ForEach are racy; synchronize with the owners first.
func (c *Cell[V]) ForEach(fn func(*V)) {
	c.forEach(fn)
}

// Len returns the number of threads with a live slot.
func (c *Cell[V]) Len() int {
	return c.reg.Len()
}

// Name returns the cell name used in logs and metrics.
func (c *Cell[V]) Name() string {
	return c.cfg.name
}

// Policy returns PolicyTransient.
func (c *Cell[V]) Policy() Policy {
	return c.policy
}
