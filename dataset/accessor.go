// Package dataset loads and saves the credit-card datasets kept under the
// project's data/ directory. Raw data lives at data/raw/creditcard.csv and
// each processed split at data/processed/<split>/data.csv.
package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"go.uber.org/zap"

	"creditguard/journal"
	"creditguard/metrics"
	"creditguard/paths"
)

const component = "dataset"

// ErrParse marks CSV content that could not be read as a table.
var ErrParse = errors.New("dataset: parse error")

// missingCell is how a nil cell is written and read back: an empty field.
var missingCell = ""

// Accessor reads and writes datasets relative to a project root.
// The zero value is ready to use: it resolves paths.Root() on every call,
// expects UTF-8 input and logs nothing.
type Accessor struct {
	// Root overrides paths.Root() when non-empty.
	Root string
	// Encoding is the WHATWG name of the source encoding. Empty means UTF-8.
	Encoding string
	// InferTypes asks dataframe-go to type columns instead of keeping strings.
	InferTypes bool

	Logger  *zap.Logger
	Metrics *metrics.Collector
	Journal journal.Recorder
}

func LoadRawData(ctx context.Context, path string) (*dataframe.DataFrame, error) {
	return (&Accessor{}).LoadRawData(ctx, path)
}

func LoadProcessedData(ctx context.Context, split paths.Split) (*dataframe.DataFrame, error) {
	return (&Accessor{}).LoadProcessedData(ctx, split)
}

func SaveProcessedData(ctx context.Context, df *dataframe.DataFrame, split paths.Split) error {
	return (&Accessor{}).SaveProcessedData(ctx, df, split)
}

// LoadRawData reads the raw dataset. An empty path means
// <root>/data/raw/creditcard.csv.
func (a *Accessor) LoadRawData(ctx context.Context, path string) (*dataframe.DataFrame, error) {
	if path == "" {
		path = paths.RawDataPath(paths.RootOr(a.Root))
	}
	return a.load(ctx, "raw", path)
}

func (a *Accessor) LoadProcessedData(ctx context.Context, split paths.Split) (*dataframe.DataFrame, error) {
	if _, err := paths.ParseSplit(string(split)); err != nil {
		return nil, err
	}
	return a.load(ctx, split.String(), paths.ProcessedDataPath(paths.RootOr(a.Root), split))
}

// SaveProcessedData writes df to <root>/data/processed/<split>/data.csv,
// creating the directory if needed and replacing any existing file.
func (a *Accessor) SaveProcessedData(ctx context.Context, df *dataframe.DataFrame, split paths.Split) (err error) {
	if df == nil {
		return errors.New("dataset: nil dataframe")
	}
	if _, err := paths.ParseSplit(string(split)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	root := paths.RootOr(a.Root)
	path := paths.ProcessedDataPath(root, split)
	start := time.Now()
	var written int64
	defer func() {
		a.finish(ctx, "save", split.String(), path, written, start, err)
	}()

	if err := os.MkdirAll(paths.ProcessedDir(root, split), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := &countingWriter{w: f}
	if err := exports.ExportToCSV(ctx, w, df, exports.CSVExportOptions{NullString: &missingCell}); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	written = w.n
	return nil
}

func (a *Accessor) load(ctx context.Context, kind, path string) (df *dataframe.DataFrame, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	var read int64
	defer func() {
		a.finish(ctx, "load", kind, path, read, start, err)
	}()

	decoder, err := sourceDecoder(a.Encoding)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := readDecoded(f, decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrParse, path, err)
	}
	read = int64(len(data))

	df, err = imports.LoadFromCSV(ctx, bytes.NewReader(data), imports.CSVLoadOptions{
		Comma:          ',',
		InferDataTypes: a.InferTypes,
		NilValue:       &missingCell,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return df, nil
}

func (a *Accessor) finish(ctx context.Context, op, kind, path string, n int64, start time.Time, err error) {
	a.Metrics.Observe(component, op, n, start, err)

	logger := a.logger()
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("kind", kind),
		zap.String("path", path),
		zap.Int64("bytes", n),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		logger.Debug("dataset operation failed", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("dataset operation", fields...)
	}

	if a.Journal == nil {
		return
	}
	event := journal.Event{Component: component, Op: op, Kind: kind, Path: path, Bytes: n}
	if err != nil {
		event.Err = err.Error()
	}
	if jerr := a.Journal.Record(context.WithoutCancel(ctx), event); jerr != nil {
		logger.Warn("journal record failed", zap.String("path", path), zap.Error(jerr))
	}
}

func (a *Accessor) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger.Named(component)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
