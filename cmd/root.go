package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tclemos/docbench/benchmark"
)

var (
	logFormat  string
	logLevel   string
	configFile string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "docbench",
	Short: "Comparative load testing for document stores",
	Long: `docbench drives mixed insert/read workloads against document stores
(MongoDB, ArangoDB, Couchbase, Redis, PostgreSQL jsonb, Pebble) under a bounded
worker pool, samples host resource usage and reports one row per
database, scenario, document size and document count.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return benchmark.SetupLog(logFormat, logLevel)
	},
}

// Execute runs the root command; SIGINT/SIGTERM cancel the running benchmark
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Benchmark failed")
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: 'json' or 'console'")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file; explicit flags take precedence")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "Env files with connection settings, loaded when present")
}
