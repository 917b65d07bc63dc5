package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"creditguard/dataset"
	"creditguard/ml"
	"creditguard/paths"
)

func newEvaluateCmd(current func() *app) *cobra.Command {
	var (
		splitFlag  string
		modelFlag  string
		scalerFlag string
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score the saved model on a processed split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx := cmd.Context()
			split, err := paths.ParseSplit(splitFlag)
			if err != nil {
				return err
			}

			model, err := ml.LoadClassifier(ctx, a.store, a.cfg.Models.ModelType, a.modelLocation(modelFlag))
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			scaler := &ml.StandardScaler{}
			if err := a.store.LoadScaler(ctx, a.scalerLocation(scalerFlag), scaler); err != nil {
				return fmt.Errorf("failed to load scaler: %w", err)
			}

			var features []string
			if named, ok := model.(interface{ FeatureNames() []string }); ok {
				features = named.FeatureNames()
			}
			if len(features) == 0 {
				df, err := a.datasets.LoadProcessedData(ctx, split)
				if err != nil {
					return fmt.Errorf("failed to load %s split: %w", split, err)
				}
				t := a.cfg.Training
				features = featureColumns(dataset.Columns(df), t.LabelColumn, t.ExcludeColumns)
			}

			X, y, err := a.scaledSplit(cmd, split, features, scaler)
			if err != nil {
				return err
			}
			report, err := ml.Evaluate(model, X, y, a.cfg.Training.PositiveLabel)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), split, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&splitFlag, "split", string(paths.Test), "split to score: train, val or test")
	cmd.Flags().StringVar(&modelFlag, "model", "", "model file name under models/, or a path")
	cmd.Flags().StringVar(&scalerFlag, "scaler", "", "scaler file name under models/, or a path")
	return cmd
}
