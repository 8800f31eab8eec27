package benchmark

import (
	"errors"
	"fmt"
	"sort"
)

// WorkloadScenario is a named read/write split applied to a batch of operations
type WorkloadScenario struct {
	Name        string
	ReadPct     int
	WritePct    int
	Description string
}

// Scenario names available in the catalog
const (
	ScenarioReadHeavy    = "read_heavy"
	ScenarioBalanced     = "balanced"
	ScenarioWriteHeavy   = "write_heavy"
	ScenarioReadOnly     = "read_only"
	ScenarioWriteOnly    = "write_only"
	ScenarioBatchWrite   = "batch_write"
	ScenarioComplexQuery = "complex_query"
)

var (
	ErrInvalidScenario     = errors.New("invalid scenario: read and write percentages must sum to 100")
	ErrUnknownScenario     = errors.New("unknown scenario")
	ErrUnknownDocumentSize = errors.New("unknown document size")
)

var scenarioCatalog = map[string]WorkloadScenario{
	ScenarioReadHeavy:    {Name: ScenarioReadHeavy, ReadPct: 90, WritePct: 10, Description: "90% reads, 10% writes"},
	ScenarioBalanced:     {Name: ScenarioBalanced, ReadPct: 50, WritePct: 50, Description: "50% reads, 50% writes"},
	ScenarioWriteHeavy:   {Name: ScenarioWriteHeavy, ReadPct: 10, WritePct: 90, Description: "10% reads, 90% writes"},
	ScenarioReadOnly:     {Name: ScenarioReadOnly, ReadPct: 100, WritePct: 0, Description: "100% reads"},
	ScenarioWriteOnly:    {Name: ScenarioWriteOnly, ReadPct: 0, WritePct: 100, Description: "100% writes"},
	ScenarioBatchWrite:   {Name: ScenarioBatchWrite, ReadPct: 0, WritePct: 100, Description: "Batch write"},
	ScenarioComplexQuery: {Name: ScenarioComplexQuery, ReadPct: 100, WritePct: 0, Description: "Complex queries"},
}

// Validate checks that both percentages are within [0,100] and sum to 100
func (s WorkloadScenario) Validate() error {
	if s.ReadPct < 0 || s.ReadPct > 100 || s.WritePct < 0 || s.WritePct > 100 {
		return fmt.Errorf("%w: %s has read=%d write=%d", ErrInvalidScenario, s.Name, s.ReadPct, s.WritePct)
	}
	if s.ReadPct+s.WritePct != 100 {
		return fmt.Errorf("%w: %s has read=%d write=%d", ErrInvalidScenario, s.Name, s.ReadPct, s.WritePct)
	}
	return nil
}

// LookupScenario returns the catalog entry for name
func LookupScenario(name string) (WorkloadScenario, error) {
	sc, ok := scenarioCatalog[name]
	if !ok {
		return WorkloadScenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return sc, nil
}

// ScenarioNames returns the catalog names in a stable order
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarioCatalog))
	for name := range scenarioCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DocumentSize is a named document payload size
type DocumentSize struct {
	Name        string
	KB          uint
	Description string
}

var documentSizes = map[string]DocumentSize{
	"small":  {Name: "small", KB: 1, Description: "1KB"},
	"medium": {Name: "medium", KB: 10, Description: "10KB"},
	"large":  {Name: "large", KB: 100, Description: "100KB"},
	"xlarge": {Name: "xlarge", KB: 1000, Description: "1MB"},
}

// LookupDocumentSize returns the size category for name
func LookupDocumentSize(name string) (DocumentSize, error) {
	ds, ok := documentSizes[name]
	if !ok {
		return DocumentSize{}, fmt.Errorf("%w: %q", ErrUnknownDocumentSize, name)
	}
	return ds, nil
}

// DocumentSizeNames returns the size categories ordered by payload size
func DocumentSizeNames() []string {
	names := make([]string, 0, len(documentSizes))
	for name := range documentSizes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return documentSizes[names[i]].KB < documentSizes[names[j]].KB
	})
	return names
}
