// Package artifact persists fitted models and scalers as single files.
//
// An artifact is addressed by a Location, which is either a bare file name
// resolved under <root>/models (Named) or a caller-supplied path used as
// given (At). The two forms never overlap: Named rejects anything that is
// not a plain file name.
package artifact

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"creditguard/journal"
	"creditguard/metrics"
	"creditguard/paths"
)

const component = "artifact"

var ErrInvalidName = errors.New("artifact: invalid name")

type Kind string

const (
	KindModel  Kind = "model"
	KindScaler Kind = "scaler"
)

type Location struct {
	name string
	path string
}

// Named addresses <root>/models/<name>.
func Named(name string) Location {
	return Location{name: name}
}

// At addresses path exactly as given, relative paths included.
func At(path string) Location {
	return Location{path: path}
}

func DefaultModel() Location {
	return Named(paths.DefaultModelFile)
}

func DefaultScaler() Location {
	return Named(paths.DefaultScalerFile)
}

func (l Location) IsZero() bool {
	return l.name == "" && l.path == ""
}

func (l Location) String() string {
	if l.path != "" {
		return l.path
	}
	return "models/" + l.name
}

// Store saves and loads artifacts. The zero value resolves paths.Root() on
// every call and logs nothing.
type Store struct {
	Root string

	Logger  *zap.Logger
	Metrics *metrics.Collector
	Journal journal.Recorder
}

// Resolve returns the file path loc refers to.
func (s *Store) Resolve(loc Location) (string, error) {
	switch {
	case loc.path != "":
		return loc.path, nil
	case loc.name != "":
		if err := validateName(loc.name); err != nil {
			return "", err
		}
		return filepath.Join(paths.ModelsDir(paths.RootOr(s.Root)), loc.name), nil
	default:
		return "", errors.New("artifact: empty location")
	}
}

func (s *Store) SaveModel(ctx context.Context, model any, loc Location) error {
	return s.save(ctx, KindModel, model, loc)
}

func (s *Store) SaveScaler(ctx context.Context, scaler any, loc Location) error {
	return s.save(ctx, KindScaler, scaler, loc)
}

// LoadModel decodes the model stored at loc into the pointer into.
func (s *Store) LoadModel(ctx context.Context, loc Location, into any) error {
	return s.load(ctx, KindModel, loc, into)
}

// LoadScaler decodes the scaler stored at loc into the pointer into.
func (s *Store) LoadScaler(ctx context.Context, loc Location, into any) error {
	return s.load(ctx, KindScaler, loc, into)
}

// Load is a typed convenience over LoadModel and LoadScaler. T may be a
// value type or a pointer to one; a pointer T is allocated before decoding.
func Load[T any](ctx context.Context, s *Store, kind Kind, loc Location) (T, error) {
	var v T
	if t := reflect.TypeOf((*T)(nil)).Elem(); t.Kind() == reflect.Pointer {
		ptr := reflect.New(t.Elem())
		if err := s.load(ctx, kind, loc, ptr.Interface()); err != nil {
			return v, err
		}
		return ptr.Interface().(T), nil
	}
	err := s.load(ctx, kind, loc, &v)
	return v, err
}

func (s *Store) save(ctx context.Context, kind Kind, v any, loc Location) (err error) {
	if isNil(v) {
		return fmt.Errorf("artifact: nil %s", kind)
	}
	path, err := s.Resolve(loc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	var written int64
	defer func() {
		s.finish(ctx, "save", kind, path, written, start, err)
	}()

	// encode fully before touching the file so a failed save keeps the
	// previous artifact
	var buf bytes.Buffer
	if err := encode(&buf, kind, v); err != nil {
		return fmt.Errorf("artifact: encode %s: %w", kind, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
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

	n, err := f.Write(buf.Bytes())
	written = int64(n)
	return err
}

func (s *Store) load(ctx context.Context, kind Kind, loc Location, into any) (err error) {
	if into == nil || reflect.TypeOf(into).Kind() != reflect.Pointer || reflect.ValueOf(into).IsNil() {
		return fmt.Errorf("artifact: load %s into non-pointer %T", kind, into)
	}
	path, err := s.Resolve(loc)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	cr := &countingReader{}
	defer func() {
		s.finish(ctx, "load", kind, path, cr.n, start, err)
	}()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cr.r = f
	h, err := decode(bufio.NewReader(cr), kind, into)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	s.logger().Debug("artifact header",
		zap.String("path", path),
		zap.String("type", h.Type),
		zap.Time("saved_at", h.SavedAt))
	return nil
}

func (s *Store) finish(ctx context.Context, op string, kind Kind, path string, n int64, start time.Time, err error) {
	s.Metrics.Observe(component, op, n, start, err)

	logger := s.logger()
	if err != nil {
		logger.Debug("artifact operation failed",
			zap.String("op", op),
			zap.String("kind", string(kind)),
			zap.String("path", path),
			zap.Error(err))
	} else {
		logger.Debug("artifact operation",
			zap.String("op", op),
			zap.String("kind", string(kind)),
			zap.String("path", path),
			zap.Int64("bytes", n),
			zap.Duration("elapsed", time.Since(start)))
	}

	if s.Journal == nil {
		return
	}
	event := journal.Event{Component: component, Op: op, Kind: string(kind), Path: path, Bytes: n}
	if err != nil {
		event.Err = err.Error()
	}
	if jerr := s.Journal.Record(context.WithoutCancel(ctx), event); jerr != nil {
		logger.Warn("journal record failed", zap.String("path", path), zap.Error(jerr))
	}
}

func (s *Store) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger.Named(component)
}

func validateName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q is not a bare file name", ErrInvalidName, name)
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
