package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tclemos/docbench/benchmark"
)

// Run is the JSON report of a whole benchmark run
type Run struct {
	BenchmarkID string                      `json:"benchmark_id"`
	StartedAt   string                      `json:"started_at"`
	FinishedAt  string                      `json:"finished_at"`
	Results     []benchmark.BenchmarkResult `json:"results"`
}

// NewRun builds a run report with RFC3339 timestamps
func NewRun(id string, started, finished time.Time, rows []benchmark.BenchmarkResult) Run {
	return Run{
		BenchmarkID: id,
		StartedAt:   started.UTC().Format(time.RFC3339Nano),
		FinishedAt:  finished.UTC().Format(time.RFC3339Nano),
		Results:     rows,
	}
}

// WriteJSONFile writes the indented report to path
func WriteJSONFile(path string, run Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return err
	}
	return f.Close()
}
