// Package observability provides logging, metrics, and tracing hooks for
// shard cells.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds cell context to a logger.
// Returns a new logger with cell and policy fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "requests", "transient")
//	enriched.Info("aggregating") // includes cell, policy
func EnrichLogger(logger *slog.Logger, cell, policy string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("cell", cell),
		slog.String("policy", policy),
	)
}

// LogSlotCreated logs the first Local call of a thread.
func LogSlotCreated(logger *slog.Logger, threadID string, live int) {
	if logger == nil {
		return
	}
	logger.Debug("slot created",
		slog.String("thread_id", threadID),
		slog.Int("live_slots", live),
	)
}

// LogSlotRemoved logs removal of a slot at thread exit.
func LogSlotRemoved(logger *slog.Logger, threadID string, live int) {
	if logger == nil {
		return
	}
	logger.Debug("slot removed",
		slog.String("thread_id", threadID),
		slog.Int("live_slots", live),
	)
}

// LogSlotRetained logs a slot handed to the registry at thread exit.
func LogSlotRetained(logger *slog.Logger, threadID string, detached int) {
	if logger == nil {
		return
	}
	logger.Debug("slot retained",
		slog.String("thread_id", threadID),
		slog.Int("detached_slots", detached),
	)
}

// LogConstructError logs a failed value construction.
// The error is still returned to the caller unchanged.
func LogConstructError(logger *slog.Logger, threadID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("value construction failed",
		slog.String("thread_id", threadID),
		slog.String("error", err.Error()),
	)
}

// LogForEach logs a completed traversal.
func LogForEach(logger *slog.Logger, visited int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("foreach completed",
		slog.Int("visited", visited),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogTeardown logs an explicit drop of detached slots.
func LogTeardown(logger *slog.Logger, dropped int) {
	if logger == nil {
		return
	}
	logger.Info("detached slots dropped",
		slog.Int("dropped", dropped),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
