package registry

import "sync"

// Index maps instantiation keys to shared values, typically registries.
// It uses sync.RWMutex since lookups vastly outnumber creations.
type Index[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// NewIndex creates an empty index.
func NewIndex[K comparable, V any]() *Index[K, V] {
	return &Index[K, V]{
		entries: make(map[K]V),
	}
}

// Get returns the value for a key and whether it exists.
func (x *Index[K, V]) Get(key K) (V, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	v, ok := x.entries[key]
	return v, ok
}

// GetOrCreate returns the value for key, creating it with factory if absent.
// factory is called at most once per key, even under concurrent access.
func (x *Index[K, V]) GetOrCreate(key K, factory func() V) V {
	x.mu.RLock()
	v, ok := x.entries[key]
	x.mu.RUnlock()
	if ok {
		return v
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if v, ok := x.entries[key]; ok {
		return v
	}
	v = factory()
	x.entries[key] = v
	return v
}

// Keys returns all keys. The order is not guaranteed.
func (x *Index[K, V]) Keys() []K {
	x.mu.RLock()
	defer x.mu.RUnlock()
	keys := make([]K, 0, len(x.entries))
	for k := range x.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries.
func (x *Index[K, V]) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Range calls fn for each entry of a snapshot taken under the read lock, so
// fn may call back into the index. Iteration stops when fn returns false.
func (x *Index[K, V]) Range(fn func(K, V) bool) {
	x.mu.RLock()
	snapshot := make(map[K]V, len(x.entries))
	for k, v := range x.entries {
		snapshot[k] = v
	}
	x.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}
