package shard

// Aggregator is implemented by Cell and Retained.
type Aggregator[V any] interface {
	ForEach(fn func(*V))
}

// Number is the set of types Sum can add.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Reduce folds every visible value into acc.
func Reduce[V, A any](agg Aggregator[V], acc A, fn func(A, V) A) A {
	agg.ForEach(func(v *V) {
		acc = fn(acc, *v)
	})
	return acc
}

// Sum adds every visible value.
func Sum[V Number](agg Aggregator[V]) V {
	var total V
	agg.ForEach(func(v *V) {
		total += *v
	})
	return total
}

// Collect copies every visible value while the cell is locked.
// The result is a point-in-time copy; later writes are not reflected.
func Collect[V any](agg Aggregator[V]) []V {
	var out []V
	agg.ForEach(func(v *V) {
		out = append(out, *v)
	})
	return out
}

// SlotInfo describes one visible slot.
type SlotInfo[V any] struct {
	Owner    string
	Detached bool
	Value    V
}

// Inspector is implemented by Cell and Retained.
type Inspector[V any] interface {
	Slots() []SlotInfo[V]
}

// Slots copies every visible slot with its owner and detachment state.
func (c *Cell[V]) Slots() []SlotInfo[V] {
	return c.slots()
}

// Slots copies every visible slot with its owner and detachment state.
func (c *Retained[V]) Slots() []SlotInfo[V] {
	return c.slots()
}

func (c *core[V]) slots() []SlotInfo[V] {
	var out []SlotInfo[V]
	c.rangeSlots(func(owner string, retained bool, v *V) bool {
		out = append(out, SlotInfo[V]{Owner: owner, Detached: retained, Value: *v})
		return true
	})
	return out
}
