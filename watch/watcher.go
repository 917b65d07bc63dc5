// Package watch reports changes to processed splits and saved artifacts.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"creditguard/paths"
)

const (
	DefaultWindow = 250 * time.Millisecond
	recentSize    = 256
)

type Event struct {
	Path      string
	Op        fsnotify.Op
	Component string // dataset, artifact
	Split     string // set for dataset events
}

func (e Event) String() string {
	if e.Split != "" {
		return fmt.Sprintf("%s %s (%s/%s)", e.Op, e.Path, e.Component, e.Split)
	}
	return fmt.Sprintf("%s %s (%s)", e.Op, e.Path, e.Component)
}

type Watcher struct {
	processed string
	models    string
	window    time.Duration
	fs        *fsnotify.Watcher
	recent    *lru.Cache[string, time.Time]
	logger    *zap.Logger
}

// New watches <root>/data/processed, its split directories and
// <root>/models. Directories that do not exist yet are skipped; at least
// one must exist.
func New(root string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	recent, err := lru.New[string, time.Time](recentSize)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		processed: filepath.Join(root, "data", "processed"),
		models:    paths.ModelsDir(root),
		window:    DefaultWindow,
		fs:        fsw,
		recent:    recent,
		logger:    logger.Named("watch"),
	}

	dirs := []string{w.processed, w.models}
	for _, split := range paths.Splits() {
		dirs = append(dirs, paths.ProcessedDir(root, split))
	}
	watched := 0
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return nil, fmt.Errorf("nothing to watch under %s", root)
	}
	return w, nil
}

// SetWindow changes the debounce window. Zero disables debouncing.
func (w *Watcher) SetWindow(d time.Duration) {
	w.window = d
}

// Run forwards events to out until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			event, keep := w.classify(ev)
			if !keep {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (w *Watcher) classify(ev fsnotify.Event) (Event, bool) {
	// a split directory created after start is picked up here
	if ev.Has(fsnotify.Create) && filepath.Dir(ev.Name) == w.processed {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fs.Add(ev.Name); err != nil {
				w.logger.Warn("watch split dir failed", zap.String("path", ev.Name), zap.Error(err))
			}
			return Event{}, false
		}
	}

	event := Event{Path: ev.Name, Op: ev.Op}
	switch {
	case strings.HasPrefix(ev.Name, w.models+string(filepath.Separator)):
		event.Component = "artifact"
	case filepath.Base(ev.Name) == paths.ProcessedFile && filepath.Dir(filepath.Dir(ev.Name)) == w.processed:
		split := filepath.Base(filepath.Dir(ev.Name))
		if _, err := paths.ParseSplit(split); err != nil {
			return Event{}, false
		}
		event.Component = "dataset"
		event.Split = split
	default:
		return Event{}, false
	}

	if w.window > 0 {
		key := ev.Name + "|" + ev.Op.String()
		now := time.Now()
		if last, ok := w.recent.Get(key); ok && now.Sub(last) < w.window {
			return Event{}, false
		}
		w.recent.Add(key, now)
	}
	return event, true
}
