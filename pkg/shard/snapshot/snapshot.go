package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/shard/pkg/shard"
)

// Version is the current snapshot format version.
const Version = 1

// ErrVersionMismatch indicates a snapshot written by an incompatible format.
var ErrVersionMismatch = errors.New("snapshot version mismatch")

// Snapshot is a point-in-time copy of every value visible in a cell.
type Snapshot struct {
	Version   int             `json:"version"`
	Cell      string          `json:"cell"`
	Policy    string          `json:"policy"`
	Label     string          `json:"label"`
	Timestamp time.Time       `json:"timestamp"`
	Slots     int             `json:"slots"`
	Detached  int             `json:"detached"`
	Values    json.RawMessage `json:"values"`
}

// Source is a cell that can be snapshotted. Cell and Retained satisfy it.
type Source[V any] interface {
	shard.Inspector[V]
	Name() string
	Policy() shard.Policy
}

// Capture copies the cell's visible values under its lock and encodes them.
func Capture[V any](src Source[V], label string) (*Snapshot, error) {
	slots := src.Slots()

	values := make([]V, 0, len(slots))
	detached := 0
	for _, s := range slots {
		values = append(values, s.Value)
		if s.Detached {
			detached++
		}
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode values of %s: %w", src.Name(), err)
	}

	return &Snapshot{
		Version:   Version,
		Cell:      src.Name(),
		Policy:    src.Policy().String(),
		Label:     label,
		Timestamp: time.Now().UTC(),
		Slots:     len(slots),
		Detached:  detached,
		Values:    data,
	}, nil
}

// Decode returns the snapshot's values.
func Decode[V any](s *Snapshot) ([]V, error) {
	if s.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, s.Version, Version)
	}
	var values []V
	if err := json.Unmarshal(s.Values, &values); err != nil {
		return nil, fmt.Errorf("decode values of %s: %w", s.Cell, err)
	}
	return values, nil
}

// Marshal serializes a snapshot to JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal deserializes a snapshot from JSON.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save captures src and stores it under (src.Name(), label).
func Save[V any](store Store, src Source[V], label string) (*Snapshot, error) {
	snap, err := Capture(src, label)
	if err != nil {
		return nil, err
	}
	data, err := snap.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := store.Save(snap.Cell, label, data); err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore loads the snapshot stored under (cell, label).
func Restore(store Store, cell, label string) (*Snapshot, error) {
	data, err := store.Load(cell, label)
	if err != nil {
		return nil, err
	}
	snap, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}
