package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tclemos/docbench/benchmark"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List workload scenarios and document sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENARIO\tREAD %\tWRITE %\tDESCRIPTION")
		for _, name := range benchmark.ScenarioNames() {
			sc, err := benchmark.LookupScenario(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", sc.Name, sc.ReadPct, sc.WritePct, sc.Description)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "DOC SIZE\tKB\tDESCRIPTION")
		for _, name := range benchmark.DocumentSizeNames() {
			ds, err := benchmark.LookupDocumentSize(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", ds.Name, ds.KB, ds.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
