package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rocketlaunchr/dataframe-go"
)

// Columns returns the column names of df in order.
func Columns(df *dataframe.DataFrame) []string {
	if df == nil {
		return nil
	}
	return df.Names()
}

// FloatColumn converts one column to float64. Missing cells become NaN.
func FloatColumn(df *dataframe.DataFrame, name string) ([]float64, error) {
	if df == nil {
		return nil, errors.New("dataset: nil dataframe")
	}
	idx, err := df.NameToColumn(name)
	if err != nil {
		return nil, fmt.Errorf("dataset: column %q: %w", name, err)
	}
	series := df.Series[idx]
	values := make([]float64, series.NRows())
	for row := range values {
		v, err := toFloat(series.Value(row))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %w", ErrParse, name, row, err)
		}
		values[row] = v
	}
	return values, nil
}

// Matrix extracts a row-major feature matrix and integer labels from df.
// When features is empty every column except label is used.
func Matrix(df *dataframe.DataFrame, features []string, label string) ([][]float64, []int, error) {
	if df == nil {
		return nil, nil, errors.New("dataset: nil dataframe")
	}
	if len(features) == 0 {
		for _, name := range df.Names() {
			if name != label {
				features = append(features, name)
			}
		}
	}
	if len(features) == 0 {
		return nil, nil, errors.New("dataset: no feature columns")
	}

	labelValues, err := FloatColumn(df, label)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]int, len(labelValues))
	for i, v := range labelValues {
		if math.IsNaN(v) {
			return nil, nil, fmt.Errorf("%w: column %q row %d: missing label", ErrParse, label, i)
		}
		labels[i] = int(math.Round(v))
	}

	rows := make([][]float64, len(labels))
	for i := range rows {
		rows[i] = make([]float64, len(features))
	}
	for j, name := range features {
		column, err := FloatColumn(df, name)
		if err != nil {
			return nil, nil, err
		}
		for i, v := range column {
			rows[i][j] = v
		}
	}
	return rows, labels, nil
}

// Subset builds a new dataframe holding the given rows of df, in order.
// Columns are carried over as strings, which is how they round-trip
// through CSV anyway.
func Subset(df *dataframe.DataFrame, rows []int) (*dataframe.DataFrame, error) {
	if df == nil {
		return nil, errors.New("dataset: nil dataframe")
	}
	n := df.NRows()
	series := make([]dataframe.Series, 0, len(df.Series))
	for _, s := range df.Series {
		values := make([]interface{}, len(rows))
		for i, row := range rows {
			if row < 0 || row >= n {
				return nil, fmt.Errorf("dataset: row %d out of range [0,%d)", row, n)
			}
			if v := s.Value(row); v != nil {
				values[i] = s.ValueString(row)
			}
		}
		series = append(series, dataframe.NewSeriesString(s.Name(), &dataframe.SeriesInit{Capacity: len(rows)}, values...))
	}
	return dataframe.NewDataFrame(series...), nil
}

func toFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported cell type %T", v)
	}
}
