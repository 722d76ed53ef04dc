package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/randalmurphal/shard/pkg/shard"
)

// Snapshot store kinds.
const (
	StoreNone   = ""
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Workload describes an accumulate-then-aggregate run.
type Workload struct {
	// Name labels the cell in logs, metrics, and snapshots.
	Name string

	// Threads is the number of participating threads.
	Threads int

	// Rounds is how many times each thread adds its index to its value.
	Rounds int

	// Policy is the cell's thread-exit policy.
	Policy shard.Policy

	// Initial is every slot's starting value.
	Initial uint64

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration

	Snapshot SnapshotConfig
	Logging  LoggingConfig

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry spans around aggregation.
	Tracing bool
}

// SnapshotConfig selects where aggregation snapshots go.
type SnapshotConfig struct {
	// Store is StoreNone, StoreMemory or StoreSQLite.
	Store string

	// Path is the SQLite database path.
	Path string
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// Default returns a workload with one thread per CPU and transient slots.
func Default() Workload {
	return Workload{
		Name:    "accumulate",
		Threads: runtime.NumCPU(),
		Rounds:  1,
		Policy:  shard.PolicyTransient,
		Logging: LoggingConfig{Level: slog.LevelInfo, Format: "text"},
	}
}

// FromValues builds a workload, falling back to Default for missing keys.
// The result is validated.
func FromValues(v Values) (Workload, error) {
	w := Default()
	w.Name = v.String("name", w.Name)
	w.Threads = v.Int("threads", w.Threads)
	w.Rounds = v.Int("rounds", w.Rounds)
	w.Initial = v.Uint64("initial", w.Initial)
	w.Timeout = v.Duration("timeout", w.Timeout)
	w.Metrics = v.Bool("metrics", w.Metrics)
	w.Tracing = v.Bool("tracing", w.Tracing)

	if v.Has("policy") {
		p, err := ParsePolicy(v.String("policy", ""))
		if err != nil {
			return Workload{}, err
		}
		w.Policy = p
	}

	snap := v.Sub("snapshot")
	w.Snapshot.Store = strings.ToLower(snap.String("store", w.Snapshot.Store))
	w.Snapshot.Path = snap.String("path", w.Snapshot.Path)

	logging := v.Sub("logging")
	if logging.Has("level") {
		if err := w.Logging.Level.UnmarshalText([]byte(logging.String("level", ""))); err != nil {
			return Workload{}, &ValidationError{Field: "logging.level", Message: err.Error()}
		}
	}
	w.Logging.Format = strings.ToLower(logging.String("format", w.Logging.Format))

	if err := w.Validate(); err != nil {
		return Workload{}, err
	}
	return w, nil
}

// Validate checks field ranges and combinations.
func (w Workload) Validate() error {
	switch {
	case w.Name == "":
		return &ValidationError{Field: "name", Message: "must not be empty"}
	case w.Threads < 1:
		return &ValidationError{Field: "threads", Message: fmt.Sprintf("must be at least 1, got %d", w.Threads)}
	case w.Rounds < 1:
		return &ValidationError{Field: "rounds", Message: fmt.Sprintf("must be at least 1, got %d", w.Rounds)}
	case w.Timeout < 0:
		return &ValidationError{Field: "timeout", Message: "must not be negative"}
	}

	switch w.Snapshot.Store {
	case StoreNone, StoreMemory:
	case StoreSQLite:
		if w.Snapshot.Path == "" {
			return &ValidationError{Field: "snapshot.path", Message: "required for sqlite store"}
		}
	default:
		return &ValidationError{Field: "snapshot.store", Message: fmt.Sprintf("unknown store %q", w.Snapshot.Store)}
	}

	switch w.Logging.Format {
	case "text", "json":
	default:
		return &ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", w.Logging.Format)}
	}
	return nil
}

// Expected returns the total a run must aggregate to while all threads are
// alive: every thread i adds i Rounds times on top of Initial.
func (w Workload) Expected() uint64 {
	n := uint64(w.Threads)
	return n*w.Initial + uint64(w.Rounds)*n*(n-1)/2
}

// ParsePolicy maps "transient" and "retained" to their policies.
func ParsePolicy(s string) (shard.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transient":
		return shard.PolicyTransient, nil
	case "retained", "retain":
		return shard.PolicyRetained, nil
	default:
		return 0, &ValidationError{Field: "policy", Message: fmt.Sprintf("unknown policy %q", s)}
	}
}
