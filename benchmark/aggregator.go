package benchmark

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// Defaults for the document-count progression
const (
	DefaultStepFloor = 1000
	DefaultStepCount = 10
)

// BenchmarkResult is one row per (database, scenario, document size, document count)
type BenchmarkResult struct {
	Database        string  `json:"database"`
	Scenario        string  `json:"scenario"`
	DocumentSize    string  `json:"document_size"`
	Documents       uint    `json:"documents"`
	TotalTime       float64 `json:"total_time"`  // seconds
	Throughput      float64 `json:"throughput"`  // operations per second
	AvgLatency      float64 `json:"avg_latency"` // seconds
	ReadPct         int     `json:"read_percentage"`
	WritePct        int     `json:"write_percentage"`
	AvgCPU          float64 `json:"avg_cpu"`
	AvgMemory       float64 `json:"avg_memory"`
	AvgDiskRead     float64 `json:"avg_disk_read"`
	AvgDiskWrite    float64 `json:"avg_disk_write"`
	AvgNetSent      float64 `json:"avg_net_sent"`
	AvgNetRecv      float64 `json:"avg_net_recv"`
	TimeoutOccurred bool    `json:"timeout_occurred"`
	MetricsMissing  bool    `json:"metrics_missing"`
	Aborted         bool    `json:"aborted"`
}

// Aggregate merges an execution summary and metric averages into a result row.
// A nil avg yields zero resource columns with MetricsMissing set.
func Aggregate(database DatabaseType, scenario WorkloadScenario, docSize DocumentSize, docCount uint, summary ExecutionSummary, avg *MetricAverages) BenchmarkResult {
	res := BenchmarkResult{
		Database:        string(database),
		Scenario:        scenario.Name,
		DocumentSize:    docSize.Description,
		Documents:       docCount,
		TotalTime:       summary.TotalElapsed.Seconds(),
		Throughput:      summary.Throughput,
		AvgLatency:      summary.AvgLatency.Seconds(),
		ReadPct:         scenario.ReadPct,
		WritePct:        scenario.WritePct,
		TimeoutOccurred: summary.AnyTimeout,
	}
	if avg == nil {
		res.MetricsMissing = true
		return res
	}
	res.AvgCPU = avg.CPU
	res.AvgMemory = avg.Memory
	res.AvgDiskRead = avg.DiskRead
	res.AvgDiskWrite = avg.DiskWrite
	res.AvgNetSent = avg.NetSent
	res.AvgNetRecv = avg.NetRecv
	return res
}

// AbortedResult is the placeholder row for a configuration that could not run
func AbortedResult(database DatabaseType, scenario WorkloadScenario, docSize DocumentSize, docCount uint) BenchmarkResult {
	res := Aggregate(database, scenario, docSize, docCount, ExecutionSummary{}, nil)
	res.Aborted = true
	return res
}

// DocumentCountSteps returns steps geometrically spaced counts from floor to
// max, truncated to integers. Duplicates produced by truncation are dropped.
func DocumentCountSteps(floor, max uint, steps int) []uint {
	if max == 0 {
		return nil
	}
	if floor == 0 {
		floor = 1
	}
	if max <= floor || steps <= 1 {
		return []uint{max}
	}

	ratio := math.Log(float64(max) / float64(floor))
	out := make([]uint, 0, steps)
	for i := 0; i < steps; i++ {
		var n uint
		switch i {
		case 0:
			n = floor
		case steps - 1:
			n = max
		default:
			n = uint(float64(floor) * math.Exp(ratio*float64(i)/float64(steps-1)))
		}
		if len(out) > 0 && out[len(out)-1] == n {
			continue
		}
		out = append(out, n)
	}
	return out
}

// SeriesConfig describes one database × scenario × document size series
type SeriesConfig struct {
	Database DatabaseType
	Scenario WorkloadScenario
	DocSize  DocumentSize
	Steps    []uint
	Executor ExecutorConfig
	Pause    time.Duration // cool-down between steps, not after the last
	Rand     *rand.Rand
}

// RunSeries runs Plan → Execute (with the sampler running) → Aggregate for
// every step and returns one row per step. A cancelled ctx stops the series
// during a pause and returns the rows produced so far.
func RunSeries(ctx context.Context, db Database, cfg SeriesConfig, sampler *Sampler, observer OpObserver) ([]BenchmarkResult, error) {
	rng := cfg.Rand
	if rng == nil {
		rng = NewRand(0)
	}

	results := make([]BenchmarkResult, 0, len(cfg.Steps))
	for i, count := range cfg.Steps {
		log.Info().
			Str("database", string(cfg.Database)).
			Str("scenario", cfg.Scenario.Name).
			Str("document_size", cfg.DocSize.Description).
			Uint("documents", count).
			Msg("Testing step")

		schedule, err := Plan(count, cfg.Scenario, cfg.DocSize.KB, rng)
		if err != nil {
			return results, fmt.Errorf("plan %d operations: %w", count, err)
		}

		sampler.Start()
		summary := Execute(ctx, schedule, db, cfg.Executor, observer)
		sampler.Stop()

		// an interrupted step is not a measurement
		if err := ctx.Err(); err != nil {
			log.Warn().
				Uint("documents", count).
				Int("skipped", summary.Skipped).
				Msg("Step interrupted, discarding partial results")
			return results, err
		}

		var avgPtr *MetricAverages
		if avg, ok := sampler.Average(); ok {
			avgPtr = &avg
		}

		res := Aggregate(cfg.Database, cfg.Scenario, cfg.DocSize, count, summary, avgPtr)
		results = append(results, res)

		if summary.AnyTimeout {
			log.Warn().
				Int("timed_out", summary.TimedOut).
				Int("skipped", summary.Skipped).
				Uint("documents", count).
				Dur("op_timeout", cfg.Executor.OpTimeout).
				Msg("Timeout while executing operations")
		}
		log.Info().
			Dur("total_elapsed", summary.TotalElapsed).
			Float64("ops_per_sec", res.Throughput).
			Float64("avg_latency_ms", res.AvgLatency*1000).
			Dur("mean_latency", summary.MeanLatency).
			Dur("p50", summary.P50).
			Dur("p95", summary.P95).
			Dur("p99", summary.P99).
			Int("failed", summary.Failed).
			Bool("metrics_missing", res.MetricsMissing).
			Msg("Step complete")

		if i < len(cfg.Steps)-1 && cfg.Pause > 0 {
			log.Info().Dur("pause", cfg.Pause).Msg("Waiting before next experiment")
			if err := sleepCtx(ctx, cfg.Pause); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
