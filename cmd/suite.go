package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/tclemos/docbench/benchmark"
)

var (
	suiteDatabases []string
	suiteScenarios []string
	suiteDocSizes  []string
)

// suiteCmd runs every database × scenario × document size combination
var suiteCmd = &cobra.Command{
	Use:   "suite",
	Short: "Run all benchmarks for every selected database, scenario and document size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("dbs") || configFile == "" {
			cfg.Databases = cfg.Databases[:0]
			for _, db := range suiteDatabases {
				cfg.Databases = append(cfg.Databases, benchmark.DatabaseType(strings.ToLower(db)))
			}
		}
		if cmd.Flags().Changed("scenarios") || configFile == "" {
			cfg.Scenarios = suiteScenarios
		}
		if cmd.Flags().Changed("doc-sizes") || configFile == "" {
			cfg.DocSizes = suiteDocSizes
		}
		return runBenchmark(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(suiteCmd)

	allDatabases := []string{
		string(benchmark.DatabaseTypeMongo),
		string(benchmark.DatabaseTypeArango),
		string(benchmark.DatabaseTypeCouchbase),
	}
	suiteCmd.Flags().StringSliceVar(&suiteDatabases, "dbs", allDatabases, "Databases to benchmark, in order")
	suiteCmd.Flags().StringSliceVar(&suiteScenarios, "scenarios", benchmark.ScenarioNames(), "Scenarios to run")
	suiteCmd.Flags().StringSliceVar(&suiteDocSizes, "doc-sizes", benchmark.DocumentSizeNames(), "Document sizes to run")
	addCommonFlags(suiteCmd)
}
