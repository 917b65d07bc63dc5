package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/rocketlaunchr/dataframe-go"
	"github.com/stretchr/testify/require"
)

func TestMatrixUsesAllButLabel(t *testing.T) {
	df := dataframe.NewDataFrame(
		dataframe.NewSeriesString("V1", nil, "-1.5", "0.25"),
		dataframe.NewSeriesString("Amount", nil, "10", ""),
		dataframe.NewSeriesString("Class", nil, "0", "1"),
	)

	X, y, err := Matrix(df, nil, "Class")
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, y)
	require.Len(t, X, 2)
	require.Equal(t, []float64{-1.5, 10}, X[0])
	require.Equal(t, 0.25, X[1][0])
	require.True(t, math.IsNaN(X[1][1]))
}

func TestMatrixSelectedFeatures(t *testing.T) {
	df := dataframe.NewDataFrame(
		dataframe.NewSeriesFloat64("V1", nil, 1.0, 2.0),
		dataframe.NewSeriesInt64("Amount", nil, int64(5), int64(6)),
		dataframe.NewSeriesString("Class", nil, "1", "0"),
	)

	X, y, err := Matrix(df, []string{"Amount"}, "Class")
	require.NoError(t, err)
	require.Equal(t, [][]float64{{5}, {6}}, X)
	require.Equal(t, []int{1, 0}, y)

	_, _, err = Matrix(df, []string{"missing"}, "Class")
	require.Error(t, err)
}

func TestFloatColumnParseError(t *testing.T) {
	df := dataframe.NewDataFrame(dataframe.NewSeriesString("Amount", nil, "abc"))
	_, err := FloatColumn(df, "Amount")
	require.True(t, errors.Is(err, ErrParse), "got %v", err)
}

func TestSubset(t *testing.T) {
	df := sampleFrame("a", "b", "c")

	sub, err := Subset(df, []int{2, 0})
	require.NoError(t, err)
	require.Equal(t, df.Names(), sub.Names())
	require.Equal(t, 2, sub.NRows())
	require.Equal(t, "c", sub.Series[1].ValueString(0))
	require.Equal(t, "a", sub.Series[1].ValueString(1))

	_, err = Subset(df, []int{3})
	require.Error(t, err)
}
