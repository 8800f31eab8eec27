package cmd

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tclemos/docbench/benchmark"
	"github.com/tclemos/docbench/report"
)

var (
	databaseType  string
	scenarioName  string
	docSize       string
	maxDocs       uint
	stepFloor     uint
	steps         int
	workers       int
	opTimeout     time.Duration
	pause         time.Duration
	databasePause time.Duration
	seed          int64
	benchmarkID   string
	outputDir     string
	writeXLSX     bool
	uploadURI     string
	metricsAddr   string
)

// runCmd benchmarks a single database, scenario and document size
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one database × scenario × document size series",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") || configFile == "" {
			cfg.Databases = []benchmark.DatabaseType{benchmark.DatabaseType(strings.ToLower(databaseType))}
		}
		if cmd.Flags().Changed("scenario") || configFile == "" {
			cfg.Scenarios = []string{scenarioName}
		}
		if cmd.Flags().Changed("doc-size") || configFile == "" {
			cfg.DocSizes = []string{docSize}
		}
		return runBenchmark(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&databaseType, "db", "mongodb", "Database backend: mongodb, arangodb, couchbase, redis, postgres, pebble, memory")
	runCmd.Flags().StringVar(&scenarioName, "scenario", benchmark.ScenarioBalanced, "Workload scenario (see 'docbench scenarios')")
	runCmd.Flags().StringVar(&docSize, "doc-size", "small", "Document size: small, medium, large, xlarge")
	addCommonFlags(runCmd)
}

// addCommonFlags registers the flags shared by run and suite
func addCommonFlags(c *cobra.Command) {
	def := benchmark.DefaultConfig()
	c.Flags().UintVar(&maxDocs, "max-docs", def.MaxDocs, "Largest document count step")
	c.Flags().UintVar(&stepFloor, "step-floor", def.StepFloor, "Smallest document count step")
	c.Flags().IntVar(&steps, "steps", def.Steps, "Number of geometrically spaced document count steps")
	c.Flags().IntVar(&workers, "workers", def.Workers, "Number of concurrent workers")
	c.Flags().DurationVar(&opTimeout, "op-timeout", def.OpTimeout, "Max wait per operation")
	c.Flags().DurationVar(&pause, "pause", def.Pause, "Cool-down between document count steps")
	c.Flags().DurationVar(&databasePause, "database-pause", def.DatabasePause, "Cool-down between databases")
	c.Flags().Int64Var(&seed, "seed", 0, "Seed for the operation shuffle (0 = time-seeded)")
	c.Flags().StringVar(&benchmarkID, "benchmark-id", "", "Benchmark ID tag for logs and report paths (default: new ULID)")
	c.Flags().StringVar(&outputDir, "output-dir", def.OutputDir, "Directory for report files")
	c.Flags().BoolVar(&writeXLSX, "xlsx", false, "Also write an .xlsx workbook")
	c.Flags().StringVar(&uploadURI, "upload", "", "Upload reports to s3://bucket/prefix")
	c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// buildConfig layers defaults, environment, config file and explicit flags
func buildConfig(cmd *cobra.Command) (benchmark.Config, error) {
	cfg := benchmark.DefaultConfig()

	conns, err := benchmark.LoadConnections(envFiles...)
	if err != nil {
		return cfg, err
	}
	cfg.Connections = conns

	if configFile != "" {
		fc, err := benchmark.LoadFile(configFile, cfg.Connections)
		if err != nil {
			return cfg, err
		}
		fc.Apply(&cfg)
	}

	cfg.LogFormat = logFormat
	cfg.LogLevel = logLevel

	flags := cmd.Flags()
	if flags.Changed("max-docs") {
		cfg.MaxDocs = maxDocs
	}
	if flags.Changed("step-floor") {
		cfg.StepFloor = stepFloor
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("op-timeout") {
		cfg.OpTimeout = opTimeout
	}
	if flags.Changed("pause") {
		cfg.Pause = pause
	}
	if flags.Changed("database-pause") {
		cfg.DatabasePause = databasePause
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("benchmark-id") {
		cfg.BenchmarkID = benchmarkID
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("xlsx") {
		cfg.XLSX = writeXLSX
	}
	if flags.Changed("upload") {
		cfg.UploadURI = uploadURI
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg, nil
}

// runBenchmark validates cfg, wires reporting and metrics, and runs every series
func runBenchmark(ctx context.Context, cfg benchmark.Config) error {
	// a small --max-docs implies a matching floor unless one was given
	if cfg.StepFloor > cfg.MaxDocs && cfg.MaxDocs > 0 && cfg.StepFloor == benchmark.DefaultStepFloor {
		cfg.StepFloor = cfg.MaxDocs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.BenchmarkID == "" {
		cfg.BenchmarkID = benchmark.NewRunID()
	}

	writer := &report.Writer{Dir: cfg.OutputDir, RunID: cfg.BenchmarkID, XLSX: cfg.XLSX}
	if cfg.UploadURI != "" {
		up, err := report.NewUploader(ctx, cfg.UploadURI)
		if err != nil {
			return err
		}
		writer.Uploader = up
	}

	runner := &benchmark.Runner{
		Config:   cfg,
		Sampler:  benchmark.NewSampler(nil, benchmark.DefaultSampleInterval),
		OnSeries: writer.Series,
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec, err := benchmark.NewPromRecorder(reg)
		if err != nil {
			return err
		}
		runner.Recorder = rec

		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving Prometheus metrics")
	}

	started := time.Now()
	rows, runErr := runner.Run(ctx)
	if len(rows) > 0 {
		if err := writer.Finish(ctx, started, time.Now(), rows); err != nil {
			return errors.Join(runErr, err)
		}
	}
	return runErr
}
