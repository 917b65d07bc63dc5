package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(current func() *app) *cobra.Command {
	var (
		limit    int
		training bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled dataset and artifact operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if a.journal == nil {
				return errors.New("journal is disabled")
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			if training {
				logs, err := a.journal.TrainingLog(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "TRAINED\tMODEL\tROWS\tACCURACY\tPRECISION\tRECALL")
				for _, l := range logs {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\n",
						l.TrainedAt.Local().Format(time.DateTime), l.ModelName, l.DataPoints, l.Accuracy, l.Precision, l.Recall)
				}
				return tw.Flush()
			}

			events, err := a.journal.Events(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "AT\tCOMPONENT\tOP\tKIND\tBYTES\tPATH\tERROR")
			for _, e := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					e.At.Local().Format(time.DateTime), e.Component, e.Op, e.Kind, e.Bytes, e.Path, e.Err)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show")
	cmd.Flags().BoolVar(&training, "training", false, "show training runs instead of I/O events")
	return cmd
}
