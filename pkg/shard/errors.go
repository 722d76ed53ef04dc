package shard

import "errors"

// ErrThreadEnded is the panic value raised when an ended Thread is used to
// reach a slot or register an exit hook.
var ErrThreadEnded = errors.New("shard: thread has ended")

// ErrIncomparableInitial is the panic value raised by OfInit when the initial
// value holds a dynamic type that cannot be used as a key.
var ErrIncomparableInitial = errors.New("shard: initial value is not comparable")
