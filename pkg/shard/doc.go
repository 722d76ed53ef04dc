/*
Package shard provides per-thread ("sharded") storage with a locked
aggregation path.

# Overview

A cell owns one lazily created value per participating thread. Each thread
mutates its own value without synchronization, and ForEach visits the values
of all threads under the cell's lock. The typical use is a per-thread counter
summed into a global total.

Go has no thread-local storage, so a participating thread is an explicit
*Thread owned by one goroutine. Go, Run, Group, and Begin/End create threads
and end them; ending a thread runs its exit hooks, which is where each slot is
removed or retained.

# Basic Usage

	hits := shard.New[int]()

	var g shard.Group
	for i := range 8 {
	    g.Go(func(th *shard.Thread) {
	        *hits.Local(th) += i
	    })
	}
	g.Wait()

Wait returns after every thread has ended, so the slots above are already
gone. To aggregate live values, synchronize first:

	var wrote sync.WaitGroup
	release := make(chan struct{})
	wrote.Add(8)
	for i := range 8 {
	    g.Go(func(th *shard.Thread) {
	        *hits.Local(th) = i
	        wrote.Done()
	        <-release
	    })
	}
	wrote.Wait()
	total := shard.Sum[int](hits) // 28
	close(release)
	g.Wait()

# Policies

Cell removes a thread's slot when the thread ends. Retained keeps it,
frozen at its last value, and ForEach keeps visiting it until Teardown:

	seen := shard.NewRetained[int]()
	shard.Run(func(th *shard.Thread) { *seen.Local(th) = 5 })
	shard.Sum[int](seen) // 5

# Process-wide Cells

Of, OfInit, and RetainedOf return one cell per (type, initial value, policy)
for the whole process:

	shard.Of[uint]()          // zero initial values
	shard.OfInit[uint](2048)  // a separate domain starting at 2048
	shard.RetainedOf[uint]()  // retained policy

These cells are never torn down, so thread exit hooks can always reach them.

# Thread Safety

Local is for the owning goroutine only; the returned pointer must not be
handed to other goroutines. ForEach and its helpers (Sum, Reduce, Collect,
Slots) may be called from any goroutine. The callback runs with the cell's
lock held and must not call Local, Load, or ForEach on the same cell; doing so
deadlocks.

Values written by their owners while another goroutine runs ForEach race.
Synchronize with the owners (a barrier, a WaitGroup, a channel) before
aggregating.
*/
package shard
