package report

import (
	"fmt"

	"github.com/tclemos/docbench/benchmark"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

// WriteXLSXFile writes rows to a workbook with a single Results sheet using
// the CSV column layout
func WriteXLSXFile(path string, rows []benchmark.BenchmarkResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.Database, r.Scenario, r.DocumentSize, r.Documents,
			r.TotalTime, r.Throughput, r.AvgLatency, r.ReadPct, r.WritePct,
			r.AvgCPU, r.AvgMemory, r.AvgDiskRead, r.AvgDiskWrite, r.AvgNetSent, r.AvgNetRecv,
			r.TimeoutOccurred, r.MetricsMissing, r.Aborted,
		}
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	return f.SaveAs(path)
}
