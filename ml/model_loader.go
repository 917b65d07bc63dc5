package ml

import (
	"context"
	"fmt"

	"creditguard/artifact"
)

const ModelDecisionTree = "decision_tree"

func NewClassifier(modelType string, maxDepth int) (Classifier, error) {
	switch modelType {
	case ModelDecisionTree, "":
		return NewDecisionTree(maxDepth), nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

// LoadClassifier reads a persisted classifier of the given type from store.
func LoadClassifier(ctx context.Context, store *artifact.Store, modelType string, loc artifact.Location) (Classifier, error) {
	switch modelType {
	case ModelDecisionTree, "":
		model := &DecisionTree{}
		if err := store.LoadModel(ctx, loc, model); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}
