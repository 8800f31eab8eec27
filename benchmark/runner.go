package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SeriesSink receives the rows of every finished series, aborted ones included
type SeriesSink func(key SeriesKey, rows []BenchmarkResult) error

// SeriesKey identifies one database × scenario × document size series
type SeriesKey struct {
	Database DatabaseType
	Scenario WorkloadScenario
	DocSize  DocumentSize
}

// Runner orchestrates the full benchmark lifecycle across databases,
// scenarios and document sizes
type Runner struct {
	Config   Config
	Sampler  *Sampler
	Recorder *PromRecorder
	OnSeries SeriesSink

	// Connect opens a backend; defaults to NewDatabase
	Connect func(ctx context.Context, cfg DatabaseConfig) (Database, error)
}

// NewRunID returns a sortable identifier for a benchmark run
func NewRunID() string {
	return strings.ToLower(ulid.Make().String())
}

// Run executes every configured series and returns all rows in execution order.
// A backend that cannot be reached is logged and skipped; its remaining
// series still produce aborted rows.
func (r *Runner) Run(ctx context.Context) ([]BenchmarkResult, error) {
	cfg := r.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BenchmarkID == "" {
		cfg.BenchmarkID = NewRunID()
	}
	connect := r.Connect
	if connect == nil {
		connect = NewDatabase
	}
	sampler := r.Sampler
	if sampler == nil {
		sampler = NewSampler(nil, DefaultSampleInterval)
	}

	initialLog(cfg)

	steps := DocumentCountSteps(cfg.StepFloor, cfg.MaxDocs, cfg.Steps)
	log.Info().Interface("steps", steps).Msg("Document counts to test")

	rng := NewRand(cfg.Seed)
	var all []BenchmarkResult

	for di, dbType := range cfg.Databases {
		log.Info().Str("database", string(dbType)).Msg("Starting database")
		unreachable := false

		for _, scName := range cfg.Scenarios {
			sc, _ := LookupScenario(scName)
			for _, sizeName := range cfg.DocSizes {
				size, _ := LookupDocumentSize(sizeName)
				key := SeriesKey{Database: dbType, Scenario: sc, DocSize: size}

				var rows []BenchmarkResult
				if unreachable {
					rows = abortedSeries(key, steps)
				} else {
					var err error
					rows, err = r.runSeries(ctx, cfg, key, steps, connect, sampler, rng)
					switch {
					case err == nil:
					case IsConnectionError(err):
						log.Error().Err(err).Str("database", string(dbType)).Msg("Database unreachable, skipping")
						unreachable = true
						rows = abortedSeries(key, steps)
					default:
						all = append(all, rows...)
						return all, err
					}
				}

				all = append(all, rows...)
				if r.OnSeries != nil {
					if err := r.OnSeries(key, rows); err != nil {
						return all, fmt.Errorf("write series results: %w", err)
					}
				}
			}
		}

		log.Info().Str("database", string(dbType)).Msg("Finished database")
		if di < len(cfg.Databases)-1 && cfg.DatabasePause > 0 && !unreachable {
			log.Info().Dur("pause", cfg.DatabasePause).Msg("Waiting before next database")
			if err := sleepCtx(ctx, cfg.DatabasePause); err != nil {
				return all, err
			}
		}
	}

	log.Info().Str("benchmark_id", cfg.BenchmarkID).Int("rows", len(all)).Msg("Benchmark complete")
	return all, nil
}

func (r *Runner) runSeries(ctx context.Context, cfg Config, key SeriesKey, steps []uint,
	connect func(context.Context, DatabaseConfig) (Database, error), sampler *Sampler, rng *rand.Rand) ([]BenchmarkResult, error) {

	dbCfg := cfg.Connections
	dbCfg.Type = key.Database

	log.Info().
		Str("database", string(key.Database)).
		Str("scenario", key.Scenario.Name).
		Str("description", key.Scenario.Description).
		Str("document_size", key.DocSize.Description).
		Msg("Connecting")

	db, err := connect(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("database", string(key.Database)).Msg("Close failed")
		}
	}()

	var observer OpObserver
	if r.Recorder != nil {
		observer = r.Recorder.For(key.Database, key.Scenario.Name)
	}

	return RunSeries(ctx, db, SeriesConfig{
		Database: key.Database,
		Scenario: key.Scenario,
		DocSize:  key.DocSize,
		Steps:    steps,
		Executor: ExecutorConfig{Workers: cfg.Workers, OpTimeout: cfg.OpTimeout},
		Pause:    cfg.Pause,
		Rand:     NewRand(rng.Int63()),
	}, sampler, observer)
}

func abortedSeries(key SeriesKey, steps []uint) []BenchmarkResult {
	rows := make([]BenchmarkResult, 0, len(steps))
	for _, n := range steps {
		rows = append(rows, AbortedResult(key.Database, key.Scenario, key.DocSize, n))
	}
	return rows
}

func initialLog(cfg Config) {
	dbs := make([]string, 0, len(cfg.Databases))
	for _, db := range cfg.Databases {
		dbs = append(dbs, string(db))
	}

	log.Info().
		Str("benchmark_id", cfg.BenchmarkID).
		Strs("databases", dbs).
		Strs("scenarios", cfg.Scenarios).
		Strs("doc_sizes", cfg.DocSizes).
		Uint("max_docs", cfg.MaxDocs).
		Int("workers", cfg.Workers).
		Dur("op_timeout", cfg.OpTimeout).
		Dur("pause", cfg.Pause).
		Int64("seed", cfg.Seed).
		Msg("Starting benchmark")
}

// SetupLog configures the global zerolog logger
func SetupLog(format, level string) error {
	if strings.ToLower(format) == "json" {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		log.Logger = log.Output(os.Stdout)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
