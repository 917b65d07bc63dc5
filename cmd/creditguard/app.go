package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/rocketlaunchr/dataframe-go"
	"go.uber.org/zap"

	"creditguard/artifact"
	"creditguard/config"
	"creditguard/dataset"
	"creditguard/journal"
	"creditguard/logging"
	"creditguard/metrics"
	"creditguard/paths"
)

type globalOptions struct {
	configPath string
	root       string
	verbose    bool
}

// app holds what every subcommand needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	cleanup func()
	journal *journal.Journal
	metrics *metrics.Collector

	datasets *dataset.Accessor
	store    *artifact.Store
}

func newApp(opts *globalOptions, stderr io.Writer) (*app, error) {
	configPath := opts.configPath
	if configPath == "" {
		configPath = filepath.Join(paths.RootOr(opts.root), config.DefaultPath)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.root != "" {
		cfg.Root = opts.root
	}

	logger, cleanup, err := logging.New(cfg.Log, opts.verbose, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		cleanup: cleanup,
		metrics: metrics.NewCollector(),
	}

	var recorder journal.Recorder
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logger.Warn("journal disabled", zap.String("path", cfg.JournalPath()), zap.Error(err))
		} else {
			a.journal = j
			recorder = j
		}
	}

	a.datasets = &dataset.Accessor{
		Root:       cfg.Root,
		Encoding:   cfg.Data.Encoding,
		InferTypes: cfg.Data.InferTypes,
		Logger:     logger,
		Metrics:    a.metrics,
		Journal:    recorder,
	}
	a.store = &artifact.Store{
		Root:    cfg.Root,
		Logger:  logger,
		Metrics: a.metrics,
		Journal: recorder,
	}

	logger.Debug("creditguard initialized",
		zap.String("root", cfg.ProjectRoot()),
		zap.String("config", configPath),
		zap.Bool("journal", a.journal != nil))
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := a.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close journal: %w", err))
	}
	a.cleanup()
	return errors.Join(errs...)
}

func (a *app) modelLocation(flag string) artifact.Location {
	return artifactLocation(flag, a.cfg.Models.ModelFile)
}

func (a *app) scalerLocation(flag string) artifact.Location {
	return artifactLocation(flag, a.cfg.Models.ScalerFile)
}

// artifactLocation treats a value containing a path separator as a path and
// anything else as a file name under <root>/models.
func artifactLocation(value, fallback string) artifact.Location {
	if value == "" {
		value = fallback
	}
	if strings.ContainsRune(value, '/') || strings.ContainsRune(value, filepath.Separator) {
		return artifact.At(value)
	}
	return artifact.Named(value)
}

// featureColumns returns every column except the label and excluded ones.
func featureColumns(columns []string, label string, exclude []string) []string {
	skip := map[string]bool{label: true}
	for _, name := range exclude {
		skip[name] = true
	}
	features := make([]string, 0, len(columns))
	for _, name := range columns {
		if !skip[name] {
			features = append(features, name)
		}
	}
	return features
}

func intColumn(df *dataframe.DataFrame, name string) ([]int, error) {
	values, err := dataset.FloatColumn(df, name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("column %s row %d: missing value", name, i)
		}
		out[i] = int(math.Round(v))
	}
	return out, nil
}
