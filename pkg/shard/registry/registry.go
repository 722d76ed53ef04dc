package registry

import "sync"

// Slot holds one thread's value plus its registry linkage.
//
// The value is owned by the creating thread until the thread exits. The link
// fields and the retained flag are only touched with the registry lock held.
type Slot[V any] struct {
	value    V
	owner    string
	retained bool
	linked   bool
	prev     *Slot[V]
	next     *Slot[V]
}

// Value returns a stable pointer to the slot's value.
// The pointer stays valid for the lifetime of the slot, even after removal.
func (s *Slot[V]) Value() *V {
	return &s.value
}

// Owner returns the ID of the thread that created the slot.
func (s *Slot[V]) Owner() string {
	return s.owner
}

// Retained reports whether the slot outlived its thread.
// Only meaningful inside RangeLocked.
func (s *Slot[V]) Retained() bool {
	return s.retained
}

// Registry is the lock-protected set of slots for one storage domain.
// The zero value is not usable; create registries with New.
type Registry[V any] struct {
	mu       sync.Mutex
	head     *Slot[V]
	size     int
	retained int
}

// New creates an empty registry.
func New[V any]() *Registry[V] {
	return &Registry[V]{}
}

// Insert links a new slot holding v and returns it.
//
// The returned slot is stable: its owner may read and write Value() without
// taking the lock.
func (r *Registry[V]) Insert(owner string, v V) *Slot[V] {
	s := &Slot[V]{value: v, owner: owner}

	r.mu.Lock()
	defer r.mu.Unlock()

	s.next = r.head
	if r.head != nil {
		r.head.prev = s
	}
	r.head = s
	s.linked = true
	r.size++
	return s
}

// Remove unlinks s. It returns false if s is not linked or has been retained;
// retained slots are only dropped by Purge.
func (r *Registry[V]) Remove(s *Slot[V]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !s.linked || s.retained {
		return false
	}
	r.unlink(s)
	return true
}

// Retain detaches s from its thread and hands it to the registry.
// The slot stays linked until Purge. Returns false if s is not linked or
// was already retained.
func (r *Registry[V]) Retain(s *Slot[V]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !s.linked || s.retained {
		return false
	}
	s.retained = true
	r.retained++
	return true
}

// Purge unlinks every retained slot and returns how many were dropped.
// Slots still owned by a running thread are left alone.
func (r *Registry[V]) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for s := r.head; s != nil; {
		next := s.next
		if s.retained {
			r.unlink(s)
			n++
		}
		s = next
	}
	return n
}

// unlink must be called with r.mu held.
func (r *Registry[V]) unlink(s *Slot[V]) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		r.head = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	}
	s.prev, s.next = nil, nil
	s.linked = false
	if s.retained {
		r.retained--
	}
	r.size--
}

// ForEachLocked calls fn with every linked value while holding the lock.
//
// fn must not call Insert, Remove, Retain, Purge or ForEachLocked on the same
// registry; the lock is not reentrant. Order is unspecified.
func (r *Registry[V]) ForEachLocked(fn func(*V)) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for s := r.head; s != nil; s = s.next {
		fn(&s.value)
		n++
	}
	return n
}

// RangeLocked is ForEachLocked with access to slot metadata.
// Iteration stops when fn returns false.
func (r *Registry[V]) RangeLocked(fn func(*Slot[V]) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for s := r.head; s != nil; s = s.next {
		if !fn(s) {
			return
		}
	}
}

// Len returns the number of linked slots, retained ones included.
func (r *Registry[V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Retained returns the number of linked slots whose thread has exited.
func (r *Registry[V]) Retained() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retained
}
