package benchmark

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config defines the benchmark parameters passed from CLI
type Config struct {
	Databases []DatabaseType `validate:"min=1,dive,required"` // backends to benchmark, in order
	Scenarios []string       `validate:"min=1,dive,required"` // scenario catalog names
	DocSizes  []string       `validate:"min=1,dive,required"` // document size catalog names

	MaxDocs   uint `validate:"gt=0"` // largest document count step
	StepFloor uint `validate:"gt=0"` // smallest document count step
	Steps     int  `validate:"gte=1,lte=100"`

	Workers       int           `validate:"gte=1"` // concurrent workers
	OpTimeout     time.Duration `validate:"gt=0"`  // max wait per operation
	Pause         time.Duration `validate:"gte=0"` // cool-down between steps
	DatabasePause time.Duration `validate:"gte=0"` // cool-down between databases (suite)

	Seed        int64  // planner RNG seed, 0 for time-seeded
	BenchmarkID string // optional label for this benchmark run
	OutputDir   string `validate:"required"`
	LogFormat   string `validate:"oneof=console json"`
	LogLevel    string `validate:"oneof=debug info warn error"`
	MetricsAddr string // serve Prometheus metrics here when set
	XLSX        bool   // also write an .xlsx workbook
	UploadURI   string `validate:"omitempty,startswith=s3://"` // copy reports to s3://bucket/prefix

	Connections DatabaseConfig
}

// DefaultConfig returns the stock harness settings
func DefaultConfig() Config {
	return Config{
		Databases:     []DatabaseType{DatabaseTypeMongo},
		Scenarios:     []string{ScenarioBalanced},
		DocSizes:      []string{"small"},
		MaxDocs:       5000,
		StepFloor:     DefaultStepFloor,
		Steps:         DefaultStepCount,
		Workers:       10,
		OpTimeout:     120 * time.Second,
		Pause:         30 * time.Second,
		DatabasePause: 30 * time.Second,
		OutputDir:     "results",
		LogFormat:     "console",
		LogLevel:      "info",
	}
}

var validate = validator.New()

// Validate checks field ranges and that every name exists in its catalog.
// It runs before any connection is opened.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	supported := make(map[DatabaseType]bool)
	for _, t := range DatabaseTypes() {
		supported[t] = true
	}
	for _, db := range c.Databases {
		if !supported[db] {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrBackendNotFound, db)
		}
	}
	for _, name := range c.Scenarios {
		sc, err := LookupScenario(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err := sc.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	for _, name := range c.DocSizes {
		if _, err := LookupDocumentSize(name); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if c.StepFloor > c.MaxDocs {
		return fmt.Errorf("%w: step floor %d exceeds max docs %d", ErrInvalidConfig, c.StepFloor, c.MaxDocs)
	}
	return nil
}

// LoadConnections reads backend connection settings from the environment,
// after loading whichever of envFiles exist
func LoadConnections(envFiles ...string) (DatabaseConfig, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return DatabaseConfig{}, fmt.Errorf("load env files: %w", err)
		}
	}

	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// FileConfig is the YAML configuration file layout.
// Zero values leave the corresponding setting untouched.
type FileConfig struct {
	Databases     []string        `yaml:"databases"`
	Scenarios     []string        `yaml:"scenarios"`
	DocSizes      []string        `yaml:"doc_sizes"`
	MaxDocs       uint            `yaml:"max_docs"`
	StepFloor     uint            `yaml:"step_floor"`
	Steps         int             `yaml:"steps"`
	Workers       int             `yaml:"workers"`
	OpTimeout     time.Duration   `yaml:"op_timeout"`
	Pause         *time.Duration  `yaml:"pause"`
	DatabasePause *time.Duration  `yaml:"database_pause"`
	Seed          int64           `yaml:"seed"`
	BenchmarkID   string          `yaml:"benchmark_id"`
	OutputDir     string          `yaml:"output_dir"`
	XLSX          bool            `yaml:"xlsx"`
	UploadURI     string          `yaml:"upload_uri"`
	Connections   *DatabaseConfig `yaml:"connections"`
}

// LoadFile parses a YAML config file. Connection settings present in the file
// override those already in base.
func LoadFile(path string, base DatabaseConfig) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	conns := base
	fc := FileConfig{Connections: &conns}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &fc, nil
}

// Apply copies the settings present in the file onto cfg
func (f *FileConfig) Apply(cfg *Config) {
	if len(f.Databases) > 0 {
		dbs := make([]DatabaseType, 0, len(f.Databases))
		for _, db := range f.Databases {
			dbs = append(dbs, DatabaseType(strings.ToLower(db)))
		}
		cfg.Databases = dbs
	}
	if len(f.Scenarios) > 0 {
		cfg.Scenarios = f.Scenarios
	}
	if len(f.DocSizes) > 0 {
		cfg.DocSizes = f.DocSizes
	}
	if f.MaxDocs > 0 {
		cfg.MaxDocs = f.MaxDocs
	}
	if f.StepFloor > 0 {
		cfg.StepFloor = f.StepFloor
	}
	if f.Steps > 0 {
		cfg.Steps = f.Steps
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	if f.OpTimeout > 0 {
		cfg.OpTimeout = f.OpTimeout
	}
	if f.Pause != nil {
		cfg.Pause = *f.Pause
	}
	if f.DatabasePause != nil {
		cfg.DatabasePause = *f.DatabasePause
	}
	if f.Seed != 0 {
		cfg.Seed = f.Seed
	}
	if f.BenchmarkID != "" {
		cfg.BenchmarkID = f.BenchmarkID
	}
	if f.OutputDir != "" {
		cfg.OutputDir = f.OutputDir
	}
	if f.XLSX {
		cfg.XLSX = true
	}
	if f.UploadURI != "" {
		cfg.UploadURI = f.UploadURI
	}
	if f.Connections != nil {
		cfg.Connections = *f.Connections
	}
}
