package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// schema keeps the summary fields next to the encoded snapshot so List can
// report them without reading the values.
const schema = `
	CREATE TABLE IF NOT EXISTS cell_snapshots (
		cell     TEXT    NOT NULL,
		label    TEXT    NOT NULL,
		sequence INTEGER NOT NULL,
		taken_at TEXT    NOT NULL,
		policy   TEXT    NOT NULL DEFAULT '',
		slots    INTEGER NOT NULL DEFAULT 0,
		detached INTEGER NOT NULL DEFAULT 0,
		data     BLOB    NOT NULL,
		PRIMARY KEY (cell, label)
	);
	CREATE INDEX IF NOT EXISTS cell_snapshots_sequence ON cell_snapshots (cell, sequence);
`

// SQLiteStore persists cell snapshots to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a snapshot database.
// path is a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store. A resave of (cell, label) takes the next sequence
// number of the cell.
func (s *SQLiteStore) Save(cell, label string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	sum := summarize(data)
	_, err := s.db.Exec(`
		INSERT INTO cell_snapshots (cell, label, sequence, taken_at, policy, slots, detached, data)
		VALUES (?1, ?2,
			COALESCE((SELECT MAX(sequence) FROM cell_snapshots WHERE cell = ?1), 0) + 1,
			?3, ?4, ?5, ?6, ?7)
		ON CONFLICT (cell, label) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM cell_snapshots WHERE cell = excluded.cell) + 1,
			taken_at = excluded.taken_at,
			policy   = excluded.policy,
			slots    = excluded.slots,
			detached = excluded.detached,
			data     = excluded.data
	`, cell, label, time.Now().UTC().Format(time.RFC3339Nano), sum.policy, sum.slots, sum.detached, data)
	if err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", cell, label, err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(cell, label string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(
		`SELECT data FROM cell_snapshots WHERE cell = ? AND label = ?`, cell, label,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s/%s: %w", cell, label, err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(cell string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT label, sequence, taken_at, policy, slots, detached, LENGTH(data)
		FROM cell_snapshots
		WHERE cell = ?
		ORDER BY sequence
	`, cell)
	if err != nil {
		return nil, fmt.Errorf("list snapshots of %s: %w", cell, err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{Cell: cell}
		var takenAt string
		if err := rows.Scan(&info.Label, &info.Sequence, &takenAt,
			&info.Policy, &info.Slots, &info.Detached, &info.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot of %s: %w", cell, err)
		}
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, takenAt)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(cell, label string) error {
	return s.exec(`DELETE FROM cell_snapshots WHERE cell = ? AND label = ?`, cell, label)
}

// DeleteCell implements Store.
func (s *SQLiteStore) DeleteCell(cell string) error {
	return s.exec(`DELETE FROM cell_snapshots WHERE cell = ?`, cell)
}

func (s *SQLiteStore) exec(query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// Close implements Store. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
