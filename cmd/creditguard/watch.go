package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"creditguard/watch"
)

func newWatchCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Report changes to processed splits and saved artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			w, err := watch.New(a.cfg.ProjectRoot(), a.logger)
			if err != nil {
				return err
			}

			events := make(chan watch.Event, 16)
			done := make(chan error, 1)
			go func() { done <- w.Run(cmd.Context(), events) }()

			a.logger.Info("watching", zap.String("root", a.cfg.ProjectRoot()))
			for {
				select {
				case ev := <-events:
					fmt.Fprintln(cmd.OutOrStdout(), ev)
				case err := <-done:
					return err
				}
			}
		},
	}
}
