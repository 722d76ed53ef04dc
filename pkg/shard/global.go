package shard

import (
	"fmt"
	"reflect"

	"github.com/randalmurphal/shard/pkg/shard/registry"
)

// instance identifies one process-wide storage domain.
type instance struct {
	typ     reflect.Type
	policy  Policy
	initial any
}

// zeroInit marks the default (zero) initial value in instance keys.
type zeroInit struct{}

// instances is never torn down: registries live as long as the process, so
// exit hooks can always reach them.
var instances = registry.NewIndex[instance, any]()

// Of returns the process-wide transient cell for V with zero initial values.
// Every call with the same V returns the same cell.
//
// Example:
//
//	shard.Of[uint]()
func Of[V any]() *Cell[V] {
	key := instance{typ: reflect.TypeFor[V](), policy: PolicyTransient, initial: zeroInit{}}
	return instances.GetOrCreate(key, func() any {
		return New[V]()
	}).(*Cell[V])
}

// OfInit returns the process-wide transient cell for V whose slots start at
// initial. Each distinct initial value is its own storage domain; OfInit with
// the zero value is the same cell as Of. Values that are not equal to
// themselves, such as NaN, are keyed by their printed form.
//
// OfInit panics with ErrIncomparableInitial if initial holds a dynamic value
// that cannot be compared, such as a slice stored in an interface.
func OfInit[V comparable](initial V) *Cell[V] {
	key, zero := initialKey(initial)
	if zero {
		return Of[V]()
	}
	k := instance{typ: reflect.TypeFor[V](), policy: PolicyTransient, initial: key}
	return instances.GetOrCreate(k, func() any {
		return New(
			WithInitial(initial),
			WithName[V](fmt.Sprintf("%s=%v", typeName[V](), initial)),
		)
	}).(*Cell[V])
}

// selfUnequal keys initial values for which v != v.
type selfUnequal struct {
	repr string
}

// initialKey returns the Index key for initial and whether it is the zero value.
func initialKey[V comparable](initial V) (any, bool) {
	boxed := any(initial)
	if boxed == nil {
		return zeroInit{}, true
	}
	if !reflect.ValueOf(boxed).Comparable() {
		panic(ErrIncomparableInitial)
	}

	var zero V
	switch {
	case initial == zero:
		return zeroInit{}, true
	case initial != initial:
		return selfUnequal{repr: fmt.Sprintf("%#v", initial)}, false
	default:
		return initial, false
	}
}

// RetainedOf returns the process-wide retained cell for V.
func RetainedOf[V any]() *Retained[V] {
	key := instance{typ: reflect.TypeFor[V](), policy: PolicyRetained, initial: zeroInit{}}
	return instances.GetOrCreate(key, func() any {
		return NewRetained[V]()
	}).(*Retained[V])
}
