package shard

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/shard/pkg/shard/observability"
)

// countingMetrics records calls per instrument.
type countingMetrics struct {
	mu      sync.Mutex
	counts  map[string]int
	visited []int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: make(map[string]int)}
}

func (m *countingMetrics) inc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[name]++
}

func (m *countingMetrics) get(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

func (m *countingMetrics) RecordSlotCreated(_ context.Context, _, _ string) { m.inc("created") }
func (m *countingMetrics) RecordSlotRemoved(_ context.Context, _, _ string) { m.inc("removed") }
func (m *countingMetrics) RecordSlotRetained(_ context.Context, _, _ string) { m.inc("retained") }
func (m *countingMetrics) RecordConstructError(_ context.Context, _ string) { m.inc("construct_errors") }

func (m *countingMetrics) RecordForEach(_ context.Context, _ string, visited int, _ time.Duration) {
	m.inc("foreach")
	m.mu.Lock()
	m.visited = append(m.visited, visited)
	m.mu.Unlock()
}

var _ observability.MetricsRecorder = (*countingMetrics)(nil)

func TestDefaultCellConfig(t *testing.T) {
	cfg := defaultCellConfig[float32]()
	assert.Equal(t, "float32", cfg.name)
	assert.Nil(t, cfg.logger)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
	assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)

	v, err := cfg.construct()
	require.NoError(t, err)
	assert.Equal(t, float32(0), v)
}

func TestOptionsIgnoreEmptyValues(t *testing.T) {
	cfg := defaultCellConfig[int]()
	WithName[int]("")(&cfg)
	WithMetrics[int](nil)(&cfg)
	WithFactory[int](nil)(&cfg)
	WithConstructor[int](nil)(&cfg)

	assert.Equal(t, "int", cfg.name)
	assert.IsType(t, observability.NoopMetrics{}, cfg.metrics)
	v, err := cfg.construct()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestWithTracingToggles(t *testing.T) {
	cfg := defaultCellConfig[int]()
	WithTracing[int](true)(&cfg)
	assert.NotEqual(t, observability.NoopSpanManager{}, cfg.spans)
	WithTracing[int](false)(&cfg)
	assert.IsType(t, observability.NoopSpanManager{}, cfg.spans)

	c := New(WithTracing[int](true))
	Run(func(th *Thread) { *c.Local(th) = 1 })
	assert.NotPanics(t, func() { c.ForEach(func(*int) {}) })
}

func TestMetricsFollowSlotLifecycle(t *testing.T) {
	t.Run("transient", func(t *testing.T) {
		m := newCountingMetrics()
		c := New(WithMetrics[int](m))

		var g Group
		for range 5 {
			g.Go(func(th *Thread) {
				*c.Local(th) = 1
				*c.Local(th) = 2
			})
		}
		g.Wait()
		c.ForEach(func(*int) {})

		assert.Equal(t, 5, m.get("created"))
		assert.Equal(t, 5, m.get("removed"))
		assert.Equal(t, 0, m.get("retained"))
		assert.Equal(t, 1, m.get("foreach"))
		assert.Equal(t, []int{0}, m.visited)
	})

	t.Run("retained", func(t *testing.T) {
		m := newCountingMetrics()
		c := NewRetained(WithMetrics[int](m))

		for range 3 {
			Run(func(th *Thread) { *c.Local(th) = 1 })
		}
		c.ForEach(func(*int) {})

		assert.Equal(t, 3, m.get("created"))
		assert.Equal(t, 0, m.get("removed"))
		assert.Equal(t, 3, m.get("retained"))
		assert.Equal(t, []int{3}, m.visited)
	})

	t.Run("construct errors", func(t *testing.T) {
		m := newCountingMetrics()
		c := New(
			WithMetrics[int](m),
			WithConstructor(func() (int, error) { return 0, errors.New("nope") }),
		)
		Run(func(th *Thread) { _, _ = c.Load(th) })
		assert.Equal(t, 1, m.get("construct_errors"))
		assert.Equal(t, 0, m.get("created"))
	})
}

// recordingSpans keeps the error each traversal span ended with.
type recordingSpans struct {
	observability.NoopSpanManager
	ended []error
}

func (r *recordingSpans) EndSpanWithError(_ trace.Span, err error) {
	r.ended = append(r.ended, err)
}

func TestForEachEndsSpan(t *testing.T) {
	spans := &recordingSpans{}
	c := NewRetained[int]()
	c.cfg.spans = spans
	Run(func(th *Thread) { *c.Local(th) = 1 })

	c.ForEach(func(*int) {})
	assert.PanicsWithValue(t, "stop", func() {
		c.ForEach(func(*int) { panic("stop") })
	})

	require.Len(t, spans.ended, 2)
	assert.NoError(t, spans.ended[0])
	require.Error(t, spans.ended[1])
	assert.Contains(t, spans.ended[1].Error(), "stop")
}

func TestForEachPanicReportsVisitedSlots(t *testing.T) {
	m := newCountingMetrics()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewRetained(WithMetrics[int](m), WithLogger[int](logger))
	for range 3 {
		Run(func(th *Thread) { *c.Local(th) = 1 })
	}

	calls := 0
	assert.PanicsWithValue(t, "stop", func() {
		c.ForEach(func(*int) {
			calls++
			if calls == 2 {
				panic("stop")
			}
		})
	})

	require.Equal(t, []int{2}, m.visited)
	assert.Contains(t, buf.String(), "visited=2")
}

func TestLoggerRecordsSlotLifecycle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c := NewRetained(WithLogger[int](logger), WithName[int]("requests"))
	var id string
	Run(func(th *Thread) {
		id = th.ID()
		*c.Local(th) = 1
	})
	c.ForEach(func(*int) {})
	c.Teardown()

	out := buf.String()
	for _, want := range []string{
		"slot created",
		"slot retained",
		"foreach completed",
		"detached slots dropped",
		"cell=requests",
		"policy=retained",
		"thread_id=" + id,
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}

func TestSlotsReportOwners(t *testing.T) {
	c := NewRetained[string]()
	var gone string
	Run(func(th *Thread) {
		gone = th.ID()
		*c.Local(th) = "done"
	})

	th := Begin()
	defer th.End()
	*c.Local(th) = "running"

	slots := c.Slots()
	require.Len(t, slots, 2)
	byOwner := map[string]SlotInfo[string]{}
	for _, s := range slots {
		byOwner[s.Owner] = s
	}
	assert.Equal(t, SlotInfo[string]{Owner: gone, Detached: true, Value: "done"}, byOwner[gone])
	assert.Equal(t, SlotInfo[string]{Owner: th.ID(), Detached: false, Value: "running"}, byOwner[th.ID()])
}

func TestReduce(t *testing.T) {
	c := NewRetained[int]()
	for i := 1; i <= 4; i++ {
		Run(func(th *Thread) { *c.Local(th) = i })
	}

	product := Reduce[int](c, 1, func(acc, v int) int { return acc * v })
	assert.Equal(t, 24, product)

	maxV := Reduce[int](c, 0, func(acc, v int) int { return max(acc, v) })
	assert.Equal(t, 4, maxV)

	assert.ElementsMatch(t, []int{1, 2, 3, 4}, Collect[int](c))
	assert.Equal(t, 10, Sum[int](c))
}

func TestCellsSatisfyInterfaces(t *testing.T) {
	var _ Aggregator[int] = New[int]()
	var _ Aggregator[int] = NewRetained[int]()
	var _ Inspector[int] = New[int]()
	var _ Inspector[int] = NewRetained[int]()
}
