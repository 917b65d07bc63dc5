package main

import (
	"fmt"

	"github.com/rocketlaunchr/dataframe-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"creditguard/dataset"
	"creditguard/ml"
	"creditguard/paths"
)

func newSplitCmd(current func() *app) *cobra.Command {
	var (
		rawPath    string
		seed       int64
		noStratify bool
		noClean    bool
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split the raw dataset into train, val and test",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx := cmd.Context()
			t := a.cfg.Training
			if !cmd.Flags().Changed("seed") {
				seed = t.Seed
			}

			df, err := a.datasets.LoadRawData(ctx, rawPath)
			if err != nil {
				return fmt.Errorf("failed to load raw data: %w", err)
			}
			if a.cfg.Data.Clean && !noClean {
				if df, err = a.clean(cmd, df); err != nil {
					return err
				}
			}

			var train, val, test []int
			if t.Stratify && !noStratify {
				labels, err := intColumn(df, t.LabelColumn)
				if err != nil {
					return err
				}
				train, val, test, err = ml.StratifiedSplit(labels, t.ValRatio, t.TestRatio, seed)
				if err != nil {
					return err
				}
			} else {
				train, val, test, err = ml.SplitIndices(df.NRows(), t.ValRatio, t.TestRatio, seed)
				if err != nil {
					return err
				}
			}

			parts := map[paths.Split][]int{paths.Train: train, paths.Val: val, paths.Test: test}
			root := a.cfg.ProjectRoot()
			for _, split := range paths.Splits() {
				sub, err := dataset.Subset(df, parts[split])
				if err != nil {
					return fmt.Errorf("failed to build %s split: %w", split, err)
				}
				if err := a.datasets.SaveProcessedData(ctx, sub, split); err != nil {
					return fmt.Errorf("failed to save %s split: %w", split, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows -> %s\n", split, len(parts[split]), paths.ProcessedDataPath(root, split))
			}
			a.logger.Info("dataset split",
				zap.Int("rows", df.NRows()),
				zap.Int64("seed", seed),
				zap.Bool("stratified", t.Stratify && !noStratify))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawPath, "raw", "", "raw CSV (default data/raw/creditcard.csv under the root)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (default from config)")
	cmd.Flags().BoolVar(&noClean, "no-clean", false, "keep malformed and duplicate rows")
	cmd.Flags().BoolVar(&noStratify, "no-stratify", false, "shuffle without keeping the label mix per split")
	return cmd
}

// clean drops rows that fail the default quality rules.
func (a *app) clean(cmd *cobra.Command, df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	cleaner := dataset.NewCleaner(dataset.DefaultRules(a.cfg.Training.LabelColumn, a.cfg.Data.NonNegativeColumns...)...)
	kept, stats, issues, err := cleaner.Clean(df)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		a.logger.Debug("row rejected", zap.Int("row", issue.Row), zap.String("rule", issue.Rule), zap.String("reason", issue.Message))
	}
	a.logger.Info("dataset cleaned",
		zap.Int("total", stats.Total),
		zap.Int("passed", stats.Passed),
		zap.Int("rejected", stats.Rejected),
		zap.Any("issues", stats.Issues))
	if stats.Rejected > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "cleaned: kept %d of %d rows\n", stats.Passed, stats.Total)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("no rows left after cleaning %d rows", stats.Total)
	}
	return dataset.Subset(df, kept)
}
