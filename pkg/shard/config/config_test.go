package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/shard/pkg/shard"
	"github.com/randalmurphal/shard/pkg/shard/config"
)

func TestValuesInt(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want int
	}{
		{"int", map[string]any{"n": 42}, 42},
		{"int64", map[string]any{"n": int64(7)}, 7},
		{"uint64", map[string]any{"n": uint64(9)}, 9},
		{"float64 whole", map[string]any{"n": 50.0}, 50},
		{"float64 fractional", map[string]any{"n": 50.5}, -1},
		{"string", map[string]any{"n": "42"}, -1},
		{"missing", map[string]any{}, -1},
		{"nil map", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.NewValues(tt.data).Int("n", -1))
		})
	}
}

func TestValuesUint64(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want uint64
	}{
		{"int", map[string]any{"n": 42}, 42},
		{"negative int", map[string]any{"n": -1}, 99},
		{"float64", map[string]any{"n": 3.0}, 3},
		{"negative float64", map[string]any{"n": -3.0}, 99},
		{"uint64", map[string]any{"n": uint64(1 << 40)}, 1 << 40},
		{"bool", map[string]any{"n": true}, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.NewValues(tt.data).Uint64("n", 99))
		})
	}
}

func TestValuesDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"string", "1m30s", 90 * time.Second},
		{"int seconds", 5, 5 * time.Second},
		{"int64 seconds", int64(2), 2 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"invalid string", "soon", time.Hour},
		{"bool", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := config.NewValues(map[string]any{"d": tt.val})
			assert.Equal(t, tt.want, v.Duration("d", time.Hour))
		})
	}
}

func TestValuesSub(t *testing.T) {
	v := config.NewValues(map[string]any{
		"nested": map[string]any{"name": "inner"},
		"flat":   "x",
	})

	assert.Equal(t, "inner", v.Sub("nested").String("name", ""))
	assert.False(t, v.Sub("flat").Has("name"))
	assert.False(t, v.Sub("missing").Has("name"))
	assert.True(t, v.Bool("missing", true))
}

func TestDefault(t *testing.T) {
	w := config.Default()
	assert.Equal(t, runtime.NumCPU(), w.Threads)
	assert.Equal(t, 1, w.Rounds)
	assert.Equal(t, shard.PolicyTransient, w.Policy)
	assert.Equal(t, slog.LevelInfo, w.Logging.Level)
	assert.NoError(t, w.Validate())
}

func TestFromYAML(t *testing.T) {
	data := []byte(`
name: requests
threads: 8
rounds: 100
policy: retained
initial: 5
timeout: 30s
metrics: true
tracing: true
snapshot:
  store: SQLite
  path: ./snap.db
logging:
  level: debug
  format: json
`)

	w, err := config.FromYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "requests", w.Name)
	assert.Equal(t, 8, w.Threads)
	assert.Equal(t, 100, w.Rounds)
	assert.Equal(t, shard.PolicyRetained, w.Policy)
	assert.Equal(t, uint64(5), w.Initial)
	assert.Equal(t, 30*time.Second, w.Timeout)
	assert.True(t, w.Metrics)
	assert.True(t, w.Tracing)
	assert.Equal(t, config.StoreSQLite, w.Snapshot.Store)
	assert.Equal(t, "./snap.db", w.Snapshot.Path)
	assert.Equal(t, slog.LevelDebug, w.Logging.Level)
	assert.Equal(t, "json", w.Logging.Format)
}

func TestFromJSON(t *testing.T) {
	w, err := config.FromJSON([]byte(`{"threads": 3, "rounds": 2, "snapshot": {"store": "memory"}}`))
	require.NoError(t, err)

	assert.Equal(t, 3, w.Threads)
	assert.Equal(t, 2, w.Rounds)
	assert.Equal(t, config.StoreMemory, w.Snapshot.Store)
	assert.Equal(t, "accumulate", w.Name)
}

func TestFromValuesErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		field string
	}{
		{"zero threads", map[string]any{"threads": 0}, "threads"},
		{"zero rounds", map[string]any{"rounds": 0}, "rounds"},
		{"empty name", map[string]any{"name": ""}, "name"},
		{"bad policy", map[string]any{"policy": "forever"}, "policy"},
		{"negative timeout", map[string]any{"timeout": "-1s"}, "timeout"},
		{"unknown store", map[string]any{"snapshot": map[string]any{"store": "redis"}}, "snapshot.store"},
		{"sqlite without path", map[string]any{"snapshot": map[string]any{"store": "sqlite"}}, "snapshot.path"},
		{"bad level", map[string]any{"logging": map[string]any{"level": "loud"}}, "logging.level"},
		{"bad format", map[string]any{"logging": map[string]any{"format": "xml"}}, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.FromValues(config.NewValues(tt.data))
			require.Error(t, err)

			var verr *config.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    shard.Policy
		wantErr bool
	}{
		{"", shard.PolicyTransient, false},
		{"transient", shard.PolicyTransient, false},
		{" Retained ", shard.PolicyRetained, false},
		{"retain", shard.PolicyRetained, false},
		{"sometimes", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := config.ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpected(t *testing.T) {
	tests := []struct {
		threads, rounds int
		initial         uint64
		want            uint64
	}{
		{1, 1, 0, 0},
		{4, 1, 0, 6},
		{4, 10, 0, 60},
		{4, 1, 2048, 4*2048 + 6},
	}

	for _, tt := range tests {
		w := config.Default()
		w.Threads, w.Rounds, w.Initial = tt.threads, tt.rounds, tt.initial
		assert.Equal(t, tt.want, w.Expected())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "w.yml")
		require.NoError(t, os.WriteFile(path, []byte("threads: 2\n"), 0o600))

		w, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 2, w.Threads)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "w.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"threads": 5}`), 0o600))

		w, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, 5, w.Threads)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "w.toml")
		require.NoError(t, os.WriteFile(path, []byte("threads = 2"), 0o600))

		_, err := config.Load(path)
		assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("threads: [1, 2"), 0o600))

		_, err := config.Load(path)
		assert.Error(t, err)
	})
}
