package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"creditguard/paths"
)

const (
	DefaultPath = "creditguard.yaml"
	EnvPrefix   = "CREDITGUARD"
)

type Config struct {
	// Root overrides the project root. Empty means paths.Root().
	Root     string         `yaml:"root"`
	Data     DataConfig     `yaml:"data"`
	Models   ModelsConfig   `yaml:"models"`
	Training TrainingConfig `yaml:"training"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type DataConfig struct {
	Encoding   string `yaml:"encoding"`
	InferTypes bool   `yaml:"infer_types" split_words:"true"`
	// Clean drops malformed and duplicate rows before splitting.
	Clean              bool     `yaml:"clean"`
	NonNegativeColumns []string `yaml:"non_negative_columns" split_words:"true"`
}

type ModelsConfig struct {
	ModelType  string `yaml:"model_type" split_words:"true"`
	ModelFile  string `yaml:"model_file" split_words:"true"`
	ScalerFile string `yaml:"scaler_file" split_words:"true"`
}

type TrainingConfig struct {
	LabelColumn    string   `yaml:"label_column" split_words:"true"`
	ScaleColumns   []string `yaml:"scale_columns" split_words:"true"`
	ExcludeColumns []string `yaml:"exclude_columns" split_words:"true"`
	MaxTreeDepth   int      `yaml:"max_tree_depth" split_words:"true"`
	ValRatio       float64  `yaml:"val_ratio" split_words:"true"`
	TestRatio      float64  `yaml:"test_ratio" split_words:"true"`
	Seed           int64    `yaml:"seed"`
	PositiveLabel  int      `yaml:"positive_label" split_words:"true"`
	Stratify       bool     `yaml:"stratify"`
}

type JournalConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is relative to the project root unless absolute.
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // console, json
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" split_words:"true"`
	MaxBackups int    `yaml:"max_backups" split_words:"true"`
	MaxAgeDays int    `yaml:"max_age_days" split_words:"true"`
	Compress   bool   `yaml:"compress"`
}

type MetricsConfig struct {
	// Textfile, when set, receives a Prometheus text dump at exit.
	Textfile string `yaml:"textfile"`
}

func Default() *Config {
	return &Config{
		Data: DataConfig{
			Clean:              true,
			NonNegativeColumns: []string{"Amount"},
		},
		Models: ModelsConfig{
			ModelType:  "decision_tree",
			ModelFile:  paths.DefaultModelFile,
			ScalerFile: paths.DefaultScalerFile,
		},
		Training: TrainingConfig{
			LabelColumn:   "Class",
			ScaleColumns:  []string{"Amount"},
			MaxTreeDepth:  6,
			ValRatio:      0.15,
			TestRatio:     0.15,
			Seed:          42,
			PositiveLabel: 1,
			Stratify:      true,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    filepath.Join("data", "journal.db"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads defaults, then the YAML file at path, then CREDITGUARD_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	t := c.Training
	if t.LabelColumn == "" {
		return errors.New("training label column is required")
	}
	if t.MaxTreeDepth <= 0 {
		return fmt.Errorf("max tree depth must be positive, got %d", t.MaxTreeDepth)
	}
	if t.ValRatio < 0 || t.TestRatio < 0 || t.ValRatio+t.TestRatio >= 1 {
		return fmt.Errorf("invalid split ratios val=%.2f test=%.2f", t.ValRatio, t.TestRatio)
	}
	for _, col := range t.ScaleColumns {
		if col == t.LabelColumn {
			return fmt.Errorf("label column %s cannot be scaled", col)
		}
	}
	if c.Models.ModelFile == "" || c.Models.ScalerFile == "" {
		return errors.New("model and scaler file names are required")
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal path is required when the journal is enabled")
	}
	return nil
}

// ProjectRoot returns the configured root or paths.Root().
func (c *Config) ProjectRoot() string {
	return paths.RootOr(c.Root)
}

func (c *Config) JournalPath() string {
	if filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(c.ProjectRoot(), c.Journal.Path)
}
