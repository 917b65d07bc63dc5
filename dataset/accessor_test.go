package dataset

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rocketlaunchr/dataframe-go"
	"github.com/stretchr/testify/require"

	"creditguard/journal"
	"creditguard/metrics"
	"creditguard/paths"
)

func sampleFrame(amounts ...string) *dataframe.DataFrame {
	times := make([]interface{}, len(amounts))
	values := make([]interface{}, len(amounts))
	classes := make([]interface{}, len(amounts))
	for i, amount := range amounts {
		times[i] = []string{"0", "1", "2", "3", "4"}[i%5]
		values[i] = amount
		classes[i] = []string{"0", "1"}[i%2]
	}
	return dataframe.NewDataFrame(
		dataframe.NewSeriesString("Time", nil, times...),
		dataframe.NewSeriesString("Amount", nil, values...),
		dataframe.NewSeriesString("Class", nil, classes...),
	)
}

func cells(df *dataframe.DataFrame) [][]string {
	out := [][]string{df.Names()}
	for row := 0; row < df.NRows(); row++ {
		line := make([]string, len(df.Series))
		for col, s := range df.Series {
			line[col] = s.ValueString(row)
		}
		out = append(out, line)
	}
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestProcessedRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := &Accessor{Root: t.TempDir()}
	df := sampleFrame("149.62", "2.69", "378.66")

	require.NoError(t, a.SaveProcessedData(ctx, df, paths.Train))

	loaded, err := a.LoadProcessedData(ctx, paths.Train)
	require.NoError(t, err)
	if diff := cmp.Diff(cells(df), cells(loaded)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(paths.ProcessedDataPath(a.Root, paths.Train))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "Time,Amount,Class", lines[0])
}

func TestRoundTripKeepsMissingCells(t *testing.T) {
	ctx := context.Background()
	a := &Accessor{Root: t.TempDir()}
	df := dataframe.NewDataFrame(
		dataframe.NewSeriesFloat64("Amount", nil, 149.62, nil, 2.5),
		dataframe.NewSeriesString("Note", nil, "ok", nil, "late"),
	)
	require.NoError(t, a.SaveProcessedData(ctx, df, paths.Val))

	raw, err := os.ReadFile(paths.ProcessedDataPath(a.Root, paths.Val))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, ",", lines[2])

	loaded, err := a.LoadProcessedData(ctx, paths.Val)
	require.NoError(t, err)
	require.Equal(t, 3, loaded.NRows())
	for _, s := range loaded.Series {
		require.Nil(t, s.Value(1), "column %s row 1", s.Name())
	}
	require.Equal(t, "ok", loaded.Series[1].Value(0))
	require.Equal(t, "late", loaded.Series[1].Value(2))

	amounts, err := FloatColumn(loaded, "Amount")
	require.NoError(t, err)
	require.Equal(t, 149.62, amounts[0])
	require.True(t, math.IsNaN(amounts[1]))
}

func TestSaveTwiceKeepsLatest(t *testing.T) {
	ctx := context.Background()
	a := &Accessor{Root: t.TempDir()}
	first := sampleFrame("1", "2", "3", "4")
	second := sampleFrame("9")

	require.NoError(t, a.SaveProcessedData(ctx, first, paths.Train))
	require.NoError(t, a.SaveProcessedData(ctx, second, paths.Train))

	loaded, err := a.LoadProcessedData(ctx, paths.Train)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.NRows())
	require.Equal(t, cells(second), cells(loaded))
}

func TestSaveRejectsUnknownSplit(t *testing.T) {
	root := t.TempDir()
	a := &Accessor{Root: root}

	err := a.SaveProcessedData(context.Background(), sampleFrame("1"), paths.Split("../escape"))
	require.True(t, errors.Is(err, paths.ErrUnknownSplit), "got %v", err)

	_, statErr := os.Stat(filepath.Join(root, "data"))
	require.True(t, errors.Is(statErr, fs.ErrNotExist))

	_, err = a.LoadProcessedData(context.Background(), paths.Split("validation"))
	require.True(t, errors.Is(err, paths.ErrUnknownSplit))
}

func TestSaveNilDataframe(t *testing.T) {
	a := &Accessor{Root: t.TempDir()}
	require.Error(t, a.SaveProcessedData(context.Background(), nil, paths.Val))
}

func TestLoadMissingFile(t *testing.T) {
	a := &Accessor{Root: t.TempDir()}

	df, err := a.LoadRawData(context.Background(), "/nonexistent/path.csv")
	require.Nil(t, df)
	require.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)

	_, err = a.LoadProcessedData(context.Background(), paths.Test)
	require.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestLoadMalformedFile(t *testing.T) {
	a := &Accessor{Root: t.TempDir()}
	path := filepath.Join(a.Root, "bad.csv")
	writeFile(t, path, "Time,Amount\n0,1.5,extra\n")

	_, err := a.LoadRawData(context.Background(), path)
	require.True(t, errors.Is(err, ErrParse), "got %v", err)
}

func TestLoadRawDataDefaultPath(t *testing.T) {
	root := t.TempDir()
	t.Setenv(paths.RootEnv, root)
	writeFile(t, paths.RawDataPath(root), "Time,V1,Amount,Class\n0,-1.35,149.62,0\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	df, err := LoadRawData(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"Time", "V1", "Amount", "Class"}, Columns(df))
	require.Equal(t, 1, df.NRows())
}

func TestLoadStripsBOM(t *testing.T) {
	a := &Accessor{Root: t.TempDir()}
	writeFile(t, paths.RawDataPath(a.Root), "\xef\xbb\xbfTime,Amount\n0,1.5\n")

	df, err := a.LoadRawData(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, []string{"Time", "Amount"}, Columns(df))
}

func TestLoadLegacyEncoding(t *testing.T) {
	a := &Accessor{Root: t.TempDir(), Encoding: "latin1"}
	writeFile(t, paths.RawDataPath(a.Root), "merchant,Amount\ncaf\xe9,3\n")

	df, err := a.LoadRawData(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "café", df.Series[0].ValueString(0))

	a.Encoding = "no-such-encoding"
	_, err = a.LoadRawData(context.Background(), "")
	require.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &Accessor{Root: t.TempDir()}

	require.ErrorIs(t, a.SaveProcessedData(ctx, sampleFrame("1"), paths.Train), context.Canceled)
	_, err := a.LoadRawData(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestJournalAndMetrics(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	j, err := journal.Open(filepath.Join(root, "journal.db"))
	require.NoError(t, err)
	defer j.Close()
	m := metrics.NewCollector()

	a := &Accessor{Root: root, Journal: j, Metrics: m}
	require.NoError(t, a.SaveProcessedData(ctx, sampleFrame("1", "2"), paths.Val))
	_, err = a.LoadProcessedData(ctx, paths.Test)
	require.Error(t, err)

	events, err := j.Events(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "load", events[0].Op)
	require.NotEmpty(t, events[0].Err)
	require.Equal(t, "val", events[1].Kind)
	require.Positive(t, events[1].Bytes)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("dataset", "save", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("dataset", "load", "error")))
}
