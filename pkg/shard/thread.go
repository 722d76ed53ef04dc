package shard

import (
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
)

// Thread is the identity a goroutine uses to reach its per-thread slots.
//
// A Thread belongs to exactly one goroutine. Its handle table is read and
// written by that goroutine only, so Local never locks after the first call.
// Ending the thread runs its exit hooks in reverse registration order; that
// is where transient slots are removed and retained slots are detached.
type Thread struct {
	*threadState
	cleanup runtime.Cleanup
}

// threadState is split from Thread so the GC fallback can reach it without
// keeping the Thread itself alive.
type threadState struct {
	id      string
	ended   atomic.Bool
	handles map[any]any
	hooks   []func()
}

// Begin creates a Thread for the calling goroutine.
//
// Pair it with End, or prefer Go and Run which end the thread for you. A
// Thread that becomes unreachable without End is ended by the garbage
// collector, so its slots are eventually removed or retained. The Thread must
// stay reachable for as long as any pointer returned by Local is used;
// defer th.End() is enough.
func Begin() *Thread {
	st := &threadState{
		id:      uuid.New().String(),
		handles: make(map[any]any),
	}
	th := &Thread{threadState: st}
	th.cleanup = runtime.AddCleanup(th, (*threadState).exit, st)
	return th
}

// Go runs fn on a new goroutine with its own Thread and ends the thread when
// fn returns or panics.
func Go(fn func(*Thread)) {
	go Run(fn)
}

// GoLocked is Go with the goroutine wired to a single OS thread for the
// lifetime of fn.
func GoLocked(fn func(*Thread)) {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		Run(fn)
	}()
}

// Run calls fn on the current goroutine with a fresh Thread and ends it
// afterwards.
func Run(fn func(*Thread)) {
	th := Begin()
	defer th.End()
	fn(th)
}

// ID returns the thread's unique identifier.
func (t *Thread) ID() string {
	return t.id
}

// Ended reports whether End has run.
func (t *Thread) Ended() bool {
	return t.ended.Load()
}

// OnExit registers fn to run when the thread ends.
// Hooks run in reverse order of registration. Registering on an ended thread
// panics with ErrThreadEnded.
func (t *Thread) OnExit(fn func()) {
	t.mustBeRunning()
	t.hooks = append(t.hooks, fn)
	runtime.KeepAlive(t)
}

// End runs the exit hooks. Calling End more than once is a no-op.
func (t *Thread) End() {
	t.cleanup.Stop()
	t.exit()
}

func (t *Thread) mustBeRunning() {
	if t.ended.Load() {
		panic(ErrThreadEnded)
	}
}

// handle returns the cached slot for key, if any.
func (st *threadState) handle(key any) (any, bool) {
	h, ok := st.handles[key]
	return h, ok
}

// bind caches h under key and schedules release at thread exit.
func (st *threadState) bind(key, h any, release func()) {
	st.handles[key] = h
	st.hooks = append(st.hooks, release)
}

func (st *threadState) exit() {
	if !st.ended.CompareAndSwap(false, true) {
		return
	}
	for i := len(st.hooks) - 1; i >= 0; i-- {
		st.hooks[i]()
	}
	st.hooks = nil
	st.handles = nil
}

// Group starts threads and waits until they have ended.
//
// Wait returns only after every thread's exit hooks have run, so a ForEach
// after Wait no longer sees transient slots of those threads. A panic in a
// thread ends that thread normally and is re-raised by Wait.
type Group struct {
	wg conc.WaitGroup
}

// Go runs fn on a new goroutine with its own Thread.
func (g *Group) Go(fn func(*Thread)) {
	g.wg.Go(func() {
		Run(fn)
	})
}

// Wait blocks until every thread started by Go has ended.
func (g *Group) Wait() {
	g.wg.Wait()
}
