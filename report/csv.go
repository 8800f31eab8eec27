// Package report persists benchmark result rows. The CSV column order is the
// compatibility contract for downstream plotting.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tclemos/docbench/benchmark"
)

// Columns is the CSV header, in contract order
var Columns = []string{
	"database",
	"scenario",
	"document_size",
	"documents",
	"total_time",
	"throughput",
	"avg_latency",
	"read_percentage",
	"write_percentage",
	"avg_cpu",
	"avg_memory",
	"avg_disk_read",
	"avg_disk_write",
	"avg_net_sent",
	"avg_net_recv",
	"timeout_occurred",
	"metrics_missing",
	"aborted",
}

var ErrMissingColumn = errors.New("missing column")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func record(r benchmark.BenchmarkResult) []string {
	return []string{
		r.Database,
		r.Scenario,
		r.DocumentSize,
		strconv.FormatUint(uint64(r.Documents), 10),
		formatFloat(r.TotalTime),
		formatFloat(r.Throughput),
		formatFloat(r.AvgLatency),
		strconv.Itoa(r.ReadPct),
		strconv.Itoa(r.WritePct),
		formatFloat(r.AvgCPU),
		formatFloat(r.AvgMemory),
		formatFloat(r.AvgDiskRead),
		formatFloat(r.AvgDiskWrite),
		formatFloat(r.AvgNetSent),
		formatFloat(r.AvgNetRecv),
		strconv.FormatBool(r.TimeoutOccurred),
		strconv.FormatBool(r.MetricsMissing),
		strconv.FormatBool(r.Aborted),
	}
}

// WriteCSV writes the header and one record per row
func WriteCSV(w io.Writer, rows []benchmark.BenchmarkResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(record(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes rows to path, creating parent directories
func WriteCSVFile(path string, rows []benchmark.BenchmarkResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, rows); err != nil {
		return err
	}
	return file.Close()
}

// ReadCSV parses rows written by WriteCSV. Columns are matched by header name.
func ReadCSV(r io.Reader) ([]benchmark.BenchmarkResult, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range Columns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var rows []benchmark.BenchmarkResult
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}
		row, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

type fieldParser struct {
	rec []string
	idx map[string]int
	err error
}

func (p *fieldParser) str(col string) string {
	return p.rec[p.idx[col]]
}

func (p *fieldParser) float(col string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.str(col), 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *fieldParser) int(col string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.str(col))
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *fieldParser) uint(col string) uint {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(p.str(col), 10, 0)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return uint(v)
}

func (p *fieldParser) bool(col string) bool {
	if p.err != nil {
		return false
	}
	v, err := strconv.ParseBool(p.str(col))
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func parseRecord(rec []string, idx map[string]int) (benchmark.BenchmarkResult, error) {
	p := &fieldParser{rec: rec, idx: idx}
	row := benchmark.BenchmarkResult{
		Database:        p.str("database"),
		Scenario:        p.str("scenario"),
		DocumentSize:    p.str("document_size"),
		Documents:       p.uint("documents"),
		TotalTime:       p.float("total_time"),
		Throughput:      p.float("throughput"),
		AvgLatency:      p.float("avg_latency"),
		ReadPct:         p.int("read_percentage"),
		WritePct:        p.int("write_percentage"),
		AvgCPU:          p.float("avg_cpu"),
		AvgMemory:       p.float("avg_memory"),
		AvgDiskRead:     p.float("avg_disk_read"),
		AvgDiskWrite:    p.float("avg_disk_write"),
		AvgNetSent:      p.float("avg_net_sent"),
		AvgNetRecv:      p.float("avg_net_recv"),
		TimeoutOccurred: p.bool("timeout_occurred"),
		MetricsMissing:  p.bool("metrics_missing"),
		Aborted:         p.bool("aborted"),
	}
	return row, p.err
}

// ReadCSVFile parses the CSV file at path
func ReadCSVFile(path string) ([]benchmark.BenchmarkResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// SeriesFileName names the CSV of one series, e.g. benchmark_mongodb_balanced_1kb.csv
func SeriesFileName(key benchmark.SeriesKey) string {
	return fmt.Sprintf("benchmark_%s_%s_%dkb.csv", key.Database, key.Scenario.Name, key.DocSize.KB)
}

// AllResultsFileName holds every row of a run
const AllResultsFileName = "benchmark_all_results.csv"
