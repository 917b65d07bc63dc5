package ml

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"creditguard/artifact"
)

func TestStandardScalerFitTransform(t *testing.T) {
	features := []string{"Time", "Amount"}
	rows := [][]float64{
		{0, 10},
		{1, 20},
		{2, 30},
	}

	scaler := NewStandardScaler("Amount")
	scaled, err := scaler.FitTransform(rows, features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.Mean[0] != 20 {
		t.Fatalf("expected mean 20, got %f", scaler.Mean[0])
	}
	want := math.Sqrt(200.0 / 3)
	if math.Abs(scaler.Scale[0]-want) > 1e-9 {
		t.Fatalf("expected scale %f, got %f", want, scaler.Scale[0])
	}
	if scaled[1][1] != 0 {
		t.Fatalf("expected centered value 0, got %f", scaled[1][1])
	}
	if scaled[2][0] != 2 {
		t.Fatalf("unscaled column changed: %f", scaled[2][0])
	}
	if rows[0][1] != 10 {
		t.Fatal("input rows were modified")
	}
}

func TestStandardScalerEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		columns  []string
		rows     [][]float64
		features []string
		wantErr  bool
	}{
		{"empty rows", []string{"Amount"}, nil, []string{"Amount"}, true},
		{"missing column", []string{"Amount"}, [][]float64{{1}}, []string{"Time"}, true},
		{"all nan", []string{"Amount"}, [][]float64{{math.NaN()}}, []string{"Amount"}, true},
		{"constant column", []string{"Amount"}, [][]float64{{5}, {5}}, []string{"Amount"}, false},
		{"all columns", nil, [][]float64{{1, 2}, {3, 4}}, []string{"a", "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := NewStandardScaler(tt.columns...)
			err := scaler.Fit(tt.rows, tt.features)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !scaler.Fitted() {
				t.Fatal("expected fitted scaler")
			}
		})
	}

	if _, err := NewStandardScaler("Amount").Transform([][]float64{{1}}, []string{"Amount"}); err == nil {
		t.Fatal("expected error for unfitted scaler")
	}
}

func TestStandardScalerArtifactRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &artifact.Store{Root: t.TempDir()}
	features := []string{"V1", "Amount"}
	rows := [][]float64{{0.1, 149.62}, {-1.2, 2.69}, {0.4, 378.66}}

	scaler := NewStandardScaler("Amount")
	if err := scaler.Fit(rows, features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.SaveScaler(ctx, scaler, artifact.DefaultScaler()); err != nil {
		t.Fatalf("save scaler: %v", err)
	}

	loaded, err := artifact.Load[StandardScaler](ctx, store, artifact.KindScaler, artifact.At(filepath.Join(store.Root, "models", "amount_scaler.joblib")))
	if err != nil {
		t.Fatalf("load scaler: %v", err)
	}
	want, _ := scaler.Transform(rows, features)
	got, err := loaded.Transform(rows, features)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	for i := range want {
		for j := range want[i] {
			if want[i][j] != got[i][j] {
				t.Fatalf("row %d col %d: want %f, got %f", i, j, want[i][j], got[i][j])
			}
		}
	}
}
