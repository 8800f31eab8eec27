package benchmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunnerConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDocs = 40
	cfg.StepFloor = 10
	cfg.Steps = 3
	cfg.Workers = 4
	cfg.OpTimeout = 5 * time.Second
	cfg.Pause = 0
	cfg.DatabasePause = 0
	cfg.Seed = 99
	return cfg
}

func TestRunnerUnreachableDatabaseIsSkipped(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.Databases = []DatabaseType{DatabaseTypeMongo, DatabaseTypeMemory}
	cfg.Scenarios = []string{ScenarioReadHeavy, ScenarioWriteOnly}

	var connects []DatabaseType
	var seriesKeys []SeriesKey
	r := &Runner{
		Config:  cfg,
		Sampler: NewSampler(&fakeCollector{}, 5*time.Millisecond),
		Connect: func(_ context.Context, dc DatabaseConfig) (Database, error) {
			connects = append(connects, dc.Type)
			if dc.Type == DatabaseTypeMongo {
				return nil, &ConnectionError{Backend: dc.Type, Cause: errors.New("connection refused")}
			}
			return NewMemoryDatabase(dc), nil
		},
		OnSeries: func(key SeriesKey, rows []BenchmarkResult) error {
			seriesKeys = append(seriesKeys, key)
			assert.Len(t, rows, 3)
			return nil
		},
	}

	rows, err := r.Run(context.Background())
	require.NoError(t, err)

	// mongo is tried once, memory once per series
	assert.Equal(t, []DatabaseType{DatabaseTypeMongo, DatabaseTypeMemory, DatabaseTypeMemory}, connects)
	assert.Len(t, seriesKeys, 4)
	require.Len(t, rows, 12)

	for _, row := range rows[:6] {
		assert.Equal(t, "mongodb", row.Database)
		assert.True(t, row.Aborted)
	}
	for _, row := range rows[6:] {
		assert.Equal(t, "memory", row.Database)
		assert.False(t, row.Aborted)
		assert.Greater(t, row.Throughput, 0.0)
	}
	assert.Equal(t, []uint{10, 20, 40}, []uint{rows[6].Documents, rows[7].Documents, rows[8].Documents})
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.Scenarios = []string{"nope"}

	called := false
	r := &Runner{
		Config: cfg,
		Connect: func(context.Context, DatabaseConfig) (Database, error) {
			called = true
			return nil, nil
		},
	}

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.False(t, called)
}

func TestRunnerSinkErrorStopsRun(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.Databases = []DatabaseType{DatabaseTypeMemory}
	cfg.Scenarios = []string{ScenarioBalanced, ScenarioWriteOnly}

	sinkErr := errors.New("disk full")
	r := &Runner{
		Config:   cfg,
		Sampler:  NewSampler(&fakeCollector{}, time.Second),
		OnSeries: func(SeriesKey, []BenchmarkResult) error { return sinkErr },
	}

	rows, err := r.Run(context.Background())
	assert.ErrorIs(t, err, sinkErr)
	assert.Len(t, rows, 3)
}

func TestRunnerRecordsPrometheusMetrics(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.Databases = []DatabaseType{DatabaseTypeMemory}
	cfg.Scenarios = []string{ScenarioWriteOnly}

	reg := prometheus.NewRegistry()
	rec, err := NewPromRecorder(reg)
	require.NoError(t, err)

	r := &Runner{
		Config:   cfg,
		Sampler:  NewSampler(&fakeCollector{}, time.Second),
		Recorder: rec,
	}
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	written := testutil.ToFloat64(rec.ops.WithLabelValues("memory", ScenarioWriteOnly, "write", "success"))
	assert.Equal(t, 70.0, written)
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestSetupLog(t *testing.T) {
	require.NoError(t, SetupLog("json", "debug"))
	require.NoError(t, SetupLog("console", "info"))
	assert.Error(t, SetupLog("console", "loud"))
}
