package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"creditguard/dataset"
	"creditguard/journal"
	"creditguard/ml"
	"creditguard/paths"
)

func newTrainCmd(current func() *app) *cobra.Command {
	var (
		maxDepth   int
		modelFlag  string
		scalerFlag string
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the scaler and classifier on the train split and save both",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx := cmd.Context()
			t := a.cfg.Training
			if maxDepth <= 0 {
				maxDepth = t.MaxTreeDepth
			}

			trainDF, err := a.datasets.LoadProcessedData(ctx, paths.Train)
			if err != nil {
				return fmt.Errorf("failed to load train split: %w", err)
			}
			features := featureColumns(dataset.Columns(trainDF), t.LabelColumn, t.ExcludeColumns)
			trainX, trainY, err := dataset.Matrix(trainDF, features, t.LabelColumn)
			if err != nil {
				return fmt.Errorf("failed to build training data: %w", err)
			}

			scaler := ml.NewStandardScaler(t.ScaleColumns...)
			trainX, err = scaler.FitTransform(trainX, features)
			if err != nil {
				return fmt.Errorf("failed to fit scaler: %w", err)
			}

			model, err := ml.NewClassifier(a.cfg.Models.ModelType, maxDepth)
			if err != nil {
				return err
			}
			if tree, ok := model.(*ml.DecisionTree); ok {
				tree.Features = features
			}
			if err := model.Train(trainX, trainY); err != nil {
				return fmt.Errorf("failed to train model: %w", err)
			}

			evalSplit := paths.Val
			evalX, evalY, err := a.scaledSplit(cmd, paths.Val, features, scaler)
			if errors.Is(err, fs.ErrNotExist) {
				a.logger.Warn("validation split missing, scoring on train", zap.Error(err))
				evalSplit, evalX, evalY = paths.Train, trainX, trainY
			} else if err != nil {
				return err
			}
			report, err := ml.Evaluate(model, evalX, evalY, t.PositiveLabel)
			if err != nil {
				return err
			}

			modelLoc := a.modelLocation(modelFlag)
			if err := a.store.SaveModel(ctx, model, modelLoc); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}
			scalerLoc := a.scalerLocation(scalerFlag)
			if err := a.store.SaveScaler(ctx, scaler, scalerLoc); err != nil {
				return fmt.Errorf("failed to save scaler: %w", err)
			}

			if a.journal != nil {
				err := a.journal.RecordTraining(ctx, journal.TrainingLog{
					ModelName:  a.cfg.Models.ModelType,
					Accuracy:   report.Accuracy,
					Precision:  report.Precision,
					Recall:     report.Recall,
					TrainedAt:  time.Now(),
					DataPoints: len(trainY),
				})
				if err != nil {
					a.logger.Warn("training log write failed", zap.Error(err))
				}
			}

			out := cmd.OutOrStdout()
			printReport(out, evalSplit, report)
			modelPath, _ := a.store.Resolve(modelLoc)
			scalerPath, _ := a.store.Resolve(scalerLoc)
			fmt.Fprintf(out, "model saved to %s\n", modelPath)
			fmt.Fprintf(out, "scaler saved to %s\n", scalerPath)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "max tree depth (default from config)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model file name under models/, or a path")
	cmd.Flags().StringVar(&scalerFlag, "scaler", "", "scaler file name under models/, or a path")
	return cmd
}

// scaledSplit loads one processed split and applies a fitted scaler to it.
func (a *app) scaledSplit(cmd *cobra.Command, split paths.Split, features []string, scaler *ml.StandardScaler) ([][]float64, []int, error) {
	df, err := a.datasets.LoadProcessedData(cmd.Context(), split)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s split: %w", split, err)
	}
	X, y, err := dataset.Matrix(df, features, a.cfg.Training.LabelColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build %s data: %w", split, err)
	}
	X, err = scaler.Transform(X, features)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scale %s data: %w", split, err)
	}
	return X, y, nil
}

func printReport(w io.Writer, split paths.Split, r ml.Report) {
	fmt.Fprintf(w, "%s: samples=%d accuracy=%.4f precision=%.4f recall=%.4f f1=%.4f\n",
		split, r.Samples, r.Accuracy, r.Precision, r.Recall, r.F1)
	fmt.Fprintf(w, "  tp=%d fp=%d fn=%d failed=%d\n", r.TruePositive, r.FalsePositive, r.FalseNegative, r.Failed)
}
