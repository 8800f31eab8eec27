package benchmark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCountSteps(t *testing.T) {
	steps := DocumentCountSteps(1000, 5000, 10)
	require.Len(t, steps, 10)
	assert.Equal(t, uint(1000), steps[0])
	assert.Equal(t, uint(5000), steps[9])
	for i := 1; i < len(steps); i++ {
		assert.Greater(t, steps[i], steps[i-1])
	}
	// truncated, not rounded: 1000 * 5^(1/9) = 1195.99...
	assert.Equal(t, uint(1195), steps[1])
}

func TestDocumentCountStepsEdgeCases(t *testing.T) {
	assert.Nil(t, DocumentCountSteps(1000, 0, 10))
	assert.Equal(t, []uint{500}, DocumentCountSteps(1000, 500, 10))
	assert.Equal(t, []uint{1000}, DocumentCountSteps(1000, 1000, 10))
	assert.Equal(t, []uint{5000}, DocumentCountSteps(1000, 5000, 1))

	// truncation collapses neighbours in a narrow range
	steps := DocumentCountSteps(10, 12, 10)
	assert.Equal(t, uint(10), steps[0])
	assert.Equal(t, uint(12), steps[len(steps)-1])
	for i := 1; i < len(steps); i++ {
		assert.Greater(t, steps[i], steps[i-1])
	}
}

func TestAggregateWithoutMetrics(t *testing.T) {
	sc, err := LookupScenario(ScenarioBalanced)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	summary := ExecutionSummary{
		Ops:          10,
		TotalElapsed: 2 * time.Second,
		Throughput:   5,
		AvgLatency:   200 * time.Millisecond,
	}
	res := Aggregate(DatabaseTypeMemory, sc, ds, 10, summary, nil)

	assert.True(t, res.MetricsMissing)
	assert.Zero(t, res.AvgCPU)
	assert.Equal(t, "memory", res.Database)
	assert.Equal(t, "1KB", res.DocumentSize)
	assert.InDelta(t, 2.0, res.TotalTime, 1e-9)
	assert.InDelta(t, 0.2, res.AvgLatency, 1e-9)
	assert.Equal(t, 50, res.ReadPct)
	assert.Equal(t, 50, res.WritePct)
}

func TestAggregateTimeoutRow(t *testing.T) {
	sc, err := LookupScenario(ScenarioWriteOnly)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("large")
	require.NoError(t, err)

	summary := ExecutionSummary{Ops: 5, AnyTimeout: true, AvgLatency: 120 * time.Second, TotalElapsed: 120 * time.Second}
	res := Aggregate(DatabaseTypeMongo, sc, ds, 5, summary, &MetricAverages{CPU: 12.5})

	assert.True(t, res.TimeoutOccurred)
	assert.Zero(t, res.Throughput)
	assert.InDelta(t, 120.0, res.AvgLatency, 1e-9)
	assert.False(t, res.MetricsMissing)
	assert.InDelta(t, 12.5, res.AvgCPU, 1e-9)
}

func TestAbortedResult(t *testing.T) {
	sc, err := LookupScenario(ScenarioReadHeavy)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("medium")
	require.NoError(t, err)

	res := AbortedResult(DatabaseTypeArango, sc, ds, 1000)
	assert.True(t, res.Aborted)
	assert.True(t, res.MetricsMissing)
	assert.Equal(t, uint(1000), res.Documents)
	assert.Zero(t, res.Throughput)
}

func TestRunSeriesReadHeavy(t *testing.T) {
	sc, err := LookupScenario(ScenarioReadHeavy)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	db := NewMemoryDatabase(DatabaseConfig{})
	defer db.Close()

	cfg := SeriesConfig{
		Database: DatabaseTypeMemory,
		Scenario: sc,
		DocSize:  ds,
		Steps:    []uint{100},
		Executor: ExecutorConfig{Workers: 10, OpTimeout: 10 * time.Second},
		Rand:     NewRand(11),
	}
	sampler := NewSampler(&fakeCollector{}, 10*time.Millisecond)

	rows, err := RunSeries(context.Background(), db, cfg, sampler, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, 90, row.ReadPct)
	assert.Equal(t, 10, row.WritePct)
	assert.Equal(t, uint(100), row.Documents)
	assert.Greater(t, row.Throughput, 0.0)
	assert.False(t, row.TimeoutOccurred)
	assert.False(t, row.Aborted)
	assert.Equal(t, 10, db.Len())
	assert.False(t, sampler.Running())
}

func TestRunSeriesOneRowPerStep(t *testing.T) {
	sc, err := LookupScenario(ScenarioWriteOnly)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	db := NewMemoryDatabase(DatabaseConfig{})
	defer db.Close()

	cfg := SeriesConfig{
		Database: DatabaseTypeMemory,
		Scenario: sc,
		DocSize:  ds,
		Steps:    DocumentCountSteps(10, 40, 3),
		Executor: ExecutorConfig{Workers: 4, OpTimeout: 10 * time.Second},
		Pause:    time.Millisecond,
		Rand:     NewRand(5),
	}

	rows, err := RunSeries(context.Background(), db, cfg, NewSampler(&fakeCollector{}, time.Second), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint(10), rows[0].Documents)
	assert.Equal(t, uint(40), rows[2].Documents)
	// steps far shorter than the interval still carry the sample taken at start
	for _, row := range rows {
		assert.False(t, row.MetricsMissing)
		assert.InDelta(t, 40, row.AvgCPU, 1e-9)
		assert.InDelta(t, 60, row.AvgMemory, 1e-9)
	}
}

func TestRunSeriesMetricsMissingWhenCollectorFails(t *testing.T) {
	sc, err := LookupScenario(ScenarioWriteOnly)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	collector := &fakeCollector{}
	collector.fail.Store(true)

	cfg := SeriesConfig{
		Database: DatabaseTypeMemory,
		Scenario: sc,
		DocSize:  ds,
		Steps:    []uint{10},
		Executor: ExecutorConfig{Workers: 2, OpTimeout: time.Second},
		Rand:     NewRand(5),
	}

	rows, err := RunSeries(context.Background(), NewMemoryDatabase(DatabaseConfig{}), cfg, NewSampler(collector, time.Second), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].MetricsMissing)
	assert.Zero(t, rows[0].AvgCPU)
}

func TestRunSeriesCancelledDuringPause(t *testing.T) {
	sc, err := LookupScenario(ScenarioWriteOnly)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	cfg := SeriesConfig{
		Database: DatabaseTypeMemory,
		Scenario: sc,
		DocSize:  ds,
		Steps:    []uint{5, 10},
		Executor: ExecutorConfig{Workers: 2, OpTimeout: time.Second},
		Pause:    time.Hour,
		Rand:     NewRand(5),
	}

	rows, err := RunSeries(ctx, NewMemoryDatabase(DatabaseConfig{}), cfg, NewSampler(&fakeCollector{}, time.Second), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, rows, 1)
}

func TestRunSeriesInterruptedStepIsDiscarded(t *testing.T) {
	sc, err := LookupScenario(ScenarioWriteOnly)
	require.NoError(t, err)
	ds, err := LookupDocumentSize("small")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	db := &stubDatabase{
		insert: func(ctx context.Context, _ Document) error {
			cancel()
			return ctx.Err()
		},
	}

	cfg := SeriesConfig{
		Database: DatabaseTypeMemory,
		Scenario: sc,
		DocSize:  ds,
		Steps:    []uint{50, 100},
		Executor: ExecutorConfig{Workers: 4, OpTimeout: time.Second},
		Rand:     NewRand(5),
	}

	rows, err := RunSeries(ctx, db, cfg, NewSampler(&fakeCollector{}, time.Second), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
	// at most one call per worker races the cancellation
	assert.LessOrEqual(t, db.calls.Load(), int64(4))
}
