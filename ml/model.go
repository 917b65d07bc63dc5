package ml

// Classifier is the model shape the CLI trains, persists and scores.
type Classifier interface {
	Train(features [][]float64, labels []int) error
	Predict(features []float64) (int, float64, error)
}
