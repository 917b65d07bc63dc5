package ml

import (
	"errors"
	"math"
	"testing"
)

type thresholdModel struct {
	threshold float64
}

func (m thresholdModel) Train([][]float64, []int) error { return nil }

func (m thresholdModel) Predict(features []float64) (int, float64, error) {
	if len(features) == 0 {
		return 0, 0, errors.New("empty features")
	}
	if features[0] > m.threshold {
		return 1, 1, nil
	}
	return 0, 1, nil
}

func TestEvaluate(t *testing.T) {
	X := [][]float64{{0.1}, {0.9}, {0.8}, {0.2}, {0.7}, {}}
	y := []int{0, 1, 0, 1, 1, 0}

	report, err := Evaluate(thresholdModel{threshold: 0.5}, X, y, 1)
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if report.Samples != 6 || report.Failed != 1 {
		t.Fatalf("samples=%d failed=%d, want 6 and 1", report.Samples, report.Failed)
	}
	if report.TruePositive != 2 || report.FalsePositive != 1 || report.FalseNegative != 1 {
		t.Fatalf("unexpected confusion counts %+v", report)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"accuracy", report.Accuracy, 3.0 / 6.0},
		{"precision", report.Precision, 2.0 / 3.0},
		{"recall", report.Recall, 2.0 / 3.0},
		{"f1", report.F1, 2.0 / 3.0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	if _, err := Evaluate(nil, nil, nil, 1); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, err := Evaluate(thresholdModel{}, [][]float64{{1}}, nil, 1); err == nil {
		t.Fatalf("expected error for size mismatch")
	}
	report, err := Evaluate(thresholdModel{}, nil, nil, 1)
	if err != nil || report.Samples != 0 || report.Accuracy != 0 {
		t.Fatalf("empty input: report=%+v err=%v", report, err)
	}
}

func TestNewClassifier(t *testing.T) {
	model, err := NewClassifier(ModelDecisionTree, 3)
	if err != nil {
		t.Fatalf("NewClassifier() error: %v", err)
	}
	if tree, ok := model.(*DecisionTree); !ok || tree.MaxDepth != 3 {
		t.Fatalf("got %#v, want *DecisionTree with depth 3", model)
	}
	if _, err := NewClassifier("xgboost", 3); err == nil {
		t.Fatalf("expected error for unsupported model type")
	}
}
