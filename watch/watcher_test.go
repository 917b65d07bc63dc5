package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"creditguard/paths"
)

func startWatcher(t *testing.T, root string) (<-chan Event, func()) {
	t.Helper()
	w, err := New(root, nil)
	require.NoError(t, err)
	w.SetWindow(0)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event, 64)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, events) }()

	stop := func() {
		cancel()
		require.NoError(t, <-done)
	}
	return events, stop
}

func waitFor(t *testing.T, events <-chan Event, match func(Event) bool, poke func()) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	poke()
	for {
		select {
		case ev := <-events:
			if match(ev) {
				return ev
			}
		case <-tick.C:
			poke()
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestWatcherReportsArtifactsAndSplits(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(paths.ModelsDir(root), 0o755))
	require.NoError(t, os.MkdirAll(paths.ProcessedDir(root, paths.Train), 0o755))

	events, stop := startWatcher(t, root)
	defer stop()

	modelPath := filepath.Join(paths.ModelsDir(root), paths.DefaultModelFile)
	ev := waitFor(t, events, func(e Event) bool { return e.Path == modelPath }, func() {
		_ = os.WriteFile(modelPath, []byte("m"), 0o644)
	})
	require.Equal(t, "artifact", ev.Component)

	dataPath := paths.ProcessedDataPath(root, paths.Train)
	ev = waitFor(t, events, func(e Event) bool { return e.Path == dataPath }, func() {
		_ = os.WriteFile(dataPath, []byte("a\n1\n"), 0o644)
	})
	require.Equal(t, "dataset", ev.Component)
	require.Equal(t, "train", ev.Split)
}

func TestWatcherPicksUpNewSplitDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "processed"), 0o755))

	events, stop := startWatcher(t, root)
	defer stop()

	require.NoError(t, os.MkdirAll(paths.ProcessedDir(root, paths.Val), 0o755))
	dataPath := paths.ProcessedDataPath(root, paths.Val)
	ev := waitFor(t, events, func(e Event) bool { return e.Path == dataPath }, func() {
		_ = os.WriteFile(dataPath, []byte("a\n1\n"), 0o644)
	})
	require.Equal(t, "val", ev.Split)
}

func TestNewNeedsSomethingToWatch(t *testing.T) {
	_, err := New(t.TempDir(), nil)
	require.Error(t, err)
}

func TestDebounceDropsRepeats(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(paths.ModelsDir(root), 0o755))
	w, err := New(root, nil)
	require.NoError(t, err)
	defer w.fs.Close()

	ev := fsnotify.Event{Name: filepath.Join(paths.ModelsDir(root), "m.joblib"), Op: fsnotify.Write}
	_, keep := w.classify(ev)
	require.True(t, keep)
	_, keep = w.classify(ev)
	require.False(t, keep)

	_, keep = w.classify(fsnotify.Event{Name: filepath.Join(root, "elsewhere.txt"), Op: fsnotify.Write})
	require.False(t, keep)
}
