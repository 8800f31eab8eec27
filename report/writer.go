package report

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tclemos/docbench/benchmark"
)

// Writer lays out every report file of one run under Dir/RunID
type Writer struct {
	Dir      string
	RunID    string
	XLSX     bool
	Uploader *Uploader // nil keeps reports local

	files []string
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.Dir, w.RunID, name)
}

// Series writes the CSV of one finished series; usable as a benchmark.SeriesSink
func (w *Writer) Series(key benchmark.SeriesKey, rows []benchmark.BenchmarkResult) error {
	p := w.path(SeriesFileName(key))
	if err := WriteCSVFile(p, rows); err != nil {
		return err
	}
	w.files = append(w.files, p)
	log.Info().Str("path", p).Int("rows", len(rows)).Msg("Results saved")
	return nil
}

// Finish writes the all-results CSV, the JSON report and, if enabled, the
// workbook, then uploads every file written during the run
func (w *Writer) Finish(ctx context.Context, started, finished time.Time, rows []benchmark.BenchmarkResult) error {
	all := w.path(AllResultsFileName)
	if err := WriteCSVFile(all, rows); err != nil {
		return err
	}
	w.files = append(w.files, all)

	js := w.path("benchmark_report.json")
	if err := WriteJSONFile(js, NewRun(w.RunID, started, finished, rows)); err != nil {
		return err
	}
	w.files = append(w.files, js)

	if w.XLSX {
		xl := w.path("benchmark_all_results.xlsx")
		if err := WriteXLSXFile(xl, rows); err != nil {
			return err
		}
		w.files = append(w.files, xl)
	}
	log.Info().Str("path", all).Int("rows", len(rows)).Msg("All results saved")

	if w.Uploader == nil {
		return nil
	}
	for _, f := range w.files {
		if err := w.Uploader.Upload(ctx, w.RunID, f); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the paths written so far
func (w *Writer) Files() []string {
	return append([]string(nil), w.files...)
}
