package snapshot

import (
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	cells  map[string]map[string]stored // cell -> label -> snapshot
	closed bool
}

type stored struct {
	data      []byte
	sequence  int
	timestamp time.Time
	summary   summary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cells: make(map[string]map[string]stored),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(cell, label string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	labels := m.cells[cell]
	if labels == nil {
		labels = make(map[string]stored)
		m.cells[cell] = labels
	}

	seq := 1
	for _, s := range labels {
		if s.sequence >= seq {
			seq = s.sequence + 1
		}
	}

	labels[label] = stored{
		data:      slices.Clone(data),
		sequence:  seq,
		timestamp: time.Now().UTC(),
		summary:   summarize(data),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(cell, label string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	s, ok := m.cells[cell][label]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(s.data), nil
}

// List implements Store.
func (m *MemoryStore) List(cell string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	labels := m.cells[cell]
	infos := make([]Info, 0, len(labels))
	for label, s := range labels {
		infos = append(infos, Info{
			Cell:      cell,
			Label:     label,
			Sequence:  s.sequence,
			Timestamp: s.timestamp,
			Size:      int64(len(s.data)),
			Policy:    s.summary.policy,
			Slots:     s.summary.slots,
			Detached:  s.summary.detached,
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return a.Sequence - b.Sequence })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(cell, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.cells[cell], label)
	return nil
}

// DeleteCell implements Store.
func (m *MemoryStore) DeleteCell(cell string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.cells, cell)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cells = nil
	return nil
}

// Len returns the total number of snapshots across all cells.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, labels := range m.cells {
		n += len(labels)
	}
	return n
}
