package ml

import (
	"errors"
	"fmt"
	"math"
)

// StandardScaler centers named columns on their mean and divides by their
// population standard deviation. NaN cells are ignored when fitting and
// stay NaN when transforming.
type StandardScaler struct {
	Columns []string
	Mean    []float64
	Scale   []float64
}

func NewStandardScaler(columns ...string) *StandardScaler {
	return &StandardScaler{Columns: append([]string(nil), columns...)}
}

func (s *StandardScaler) Fitted() bool {
	return len(s.Mean) > 0 && len(s.Mean) == len(s.Scale) && len(s.Mean) == len(s.Columns)
}

// Fit computes per-column statistics. features names the columns of rows;
// when s.Columns is empty every column is scaled.
func (s *StandardScaler) Fit(rows [][]float64, features []string) error {
	if len(rows) == 0 {
		return errors.New("rows is empty")
	}
	if len(s.Columns) == 0 {
		s.Columns = append([]string(nil), features...)
	}
	idx, err := s.indexes(features)
	if err != nil {
		return err
	}

	mean := make([]float64, len(idx))
	scale := make([]float64, len(idx))
	for j, col := range idx {
		var sum float64
		var n int
		for _, row := range rows {
			if col >= len(row) {
				return fmt.Errorf("row has %d features, want at least %d", len(row), col+1)
			}
			if v := row[col]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			return fmt.Errorf("column %q has no values", s.Columns[j])
		}
		mean[j] = sum / float64(n)

		var sq float64
		for _, row := range rows {
			if v := row[col]; !math.IsNaN(v) {
				sq += (v - mean[j]) * (v - mean[j])
			}
		}
		if sq == 0 {
			scale[j] = 1
		} else {
			scale[j] = math.Sqrt(sq / float64(n))
		}
	}
	s.Mean = mean
	s.Scale = scale
	return nil
}

// Transform returns a copy of rows with the scaler's columns standardized.
func (s *StandardScaler) Transform(rows [][]float64, features []string) ([][]float64, error) {
	if !s.Fitted() {
		return nil, errors.New("scaler not fitted")
	}
	idx, err := s.indexes(features)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		scaled := append([]float64(nil), row...)
		for j, col := range idx {
			if col >= len(scaled) {
				return nil, fmt.Errorf("row %d has %d features, want at least %d", i, len(scaled), col+1)
			}
			scaled[col] = (scaled[col] - s.Mean[j]) / s.Scale[j]
		}
		out[i] = scaled
	}
	return out, nil
}

func (s *StandardScaler) FitTransform(rows [][]float64, features []string) ([][]float64, error) {
	if err := s.Fit(rows, features); err != nil {
		return nil, err
	}
	return s.Transform(rows, features)
}

func (s *StandardScaler) indexes(features []string) ([]int, error) {
	if len(s.Columns) == 0 {
		return nil, errors.New("scaler has no columns")
	}
	positions := make(map[string]int, len(features))
	for i, name := range features {
		positions[name] = i
	}
	idx := make([]int, len(s.Columns))
	for j, name := range s.Columns {
		pos, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("missing column %s", name)
		}
		idx[j] = pos
	}
	return idx, nil
}
