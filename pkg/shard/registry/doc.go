// Package registry provides the synchronization core behind shard cells.
//
// Registry holds the slots of one storage domain in an intrusive list guarded
// by a single mutex. Slot values are never locked: each is owned by the thread
// that inserted it, and only the list structure is protected.
//
// # Lifecycle
//
//	r := registry.New[int]()
//	s := r.Insert("thread-1", 0)
//	*s.Value() = 42       // owner writes without locking
//
//	r.ForEachLocked(func(v *int) {
//	    total += *v       // runs with the lock held
//	})
//
//	r.Remove(s)           // transient: slot disappears
//	// or
//	r.Retain(s)           // retained: slot stays until Purge
//
// # Index
//
// Index is a small read-mostly map used to find the registry of a given
// instantiation. GetOrCreate calls its factory at most once per key:
//
//	idx := registry.NewIndex[string, *registry.Registry[int]]()
//	r := idx.GetOrCreate("counters", registry.New[int])
//
// # Thread Safety
//
// All methods are safe for concurrent use. Callbacks passed to ForEachLocked
// and RangeLocked run with the lock held and must not call back into the same
// registry.
package registry
