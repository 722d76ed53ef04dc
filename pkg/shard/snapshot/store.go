// Package snapshot persists point-in-time copies of shard cells.
//
// Retained cells keep values of ended threads only until the process exits;
// a snapshot store carries them further.
package snapshot

import (
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

// Store persists encoded snapshots keyed by (cell, label).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a snapshot. Overwrites an existing (cell, label) entry and
	// moves it to the end of the cell's sequence.
	Save(cell, label string, data []byte) error

	// Load retrieves a snapshot.
	// Returns ErrNotFound if it doesn't exist.
	Load(cell, label string) ([]byte, error)

	// List returns all snapshots of a cell, ordered by sequence.
	// Returns an empty slice (not error) for unknown cells.
	List(cell string) ([]Info, error)

	// Delete removes one snapshot. Returns nil if it doesn't exist.
	Delete(cell, label string) error

	// DeleteCell removes every snapshot of a cell.
	DeleteCell(cell string) error

	// Close releases any resources.
	Close() error
}

// Info provides metadata without loading the snapshot.
type Info struct {
	Cell      string
	Label     string
	Sequence  int
	Timestamp time.Time
	Size      int64

	// Policy, Slots and Detached are read from the encoded snapshot when it
	// is saved. They are zero for data that is not a Snapshot.
	Policy   string
	Slots    int
	Detached int
}

// summary holds the Info fields taken from encoded snapshot data.
type summary struct {
	policy   string
	slots    int
	detached int
}

// summarize reads the summary fields without decoding the values.
func summarize(data []byte) summary {
	if !gjson.ValidBytes(data) {
		return summary{}
	}
	fields := gjson.GetManyBytes(data, "policy", "slots", "detached")
	return summary{
		policy:   fields[0].String(),
		slots:    int(fields[1].Int()),
		detached: int(fields[2].Int()),
	}
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")
)
