package ml

import "errors"

// Report scores a classifier against one positive label.
type Report struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Samples   int     `json:"samples"`
	Failed    int     `json:"failed"`

	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	FalseNegative int `json:"false_negative"`
}

func Evaluate(model Classifier, features [][]float64, labels []int, positive int) (Report, error) {
	if model == nil {
		return Report{}, errors.New("model is nil")
	}
	if len(features) != len(labels) {
		return Report{}, errors.New("features and labels size mismatch")
	}
	report := Report{Samples: len(features)}
	if len(features) == 0 {
		return report, nil
	}

	var correct int
	for i, feature := range features {
		label, _, err := model.Predict(feature)
		if err != nil {
			report.Failed++
			continue
		}
		if label == labels[i] {
			correct++
		}
		switch {
		case label == positive && labels[i] == positive:
			report.TruePositive++
		case label == positive:
			report.FalsePositive++
		case labels[i] == positive:
			report.FalseNegative++
		}
	}

	report.Accuracy = float64(correct) / float64(len(features))
	if predicted := report.TruePositive + report.FalsePositive; predicted > 0 {
		report.Precision = float64(report.TruePositive) / float64(predicted)
	}
	if actual := report.TruePositive + report.FalseNegative; actual > 0 {
		report.Recall = float64(report.TruePositive) / float64(actual)
	}
	if report.Precision+report.Recall > 0 {
		report.F1 = 2 * report.Precision * report.Recall / (report.Precision + report.Recall)
	}
	return report, nil
}
