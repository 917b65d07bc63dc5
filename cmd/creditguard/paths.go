package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"creditguard/paths"
)

func newPathsCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the resolved project layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			root := a.cfg.ProjectRoot()

			model, err := a.store.Resolve(a.modelLocation(""))
			if err != nil {
				return err
			}
			scaler, err := a.store.Resolve(a.scalerLocation(""))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "root\t%s\n", root)
			fmt.Fprintf(tw, "raw\t%s\n", paths.RawDataPath(root))
			for _, split := range paths.Splits() {
				fmt.Fprintf(tw, "%s\t%s\n", split, paths.ProcessedDataPath(root, split))
			}
			fmt.Fprintf(tw, "model\t%s\n", model)
			fmt.Fprintf(tw, "scaler\t%s\n", scaler)
			if a.journal != nil {
				fmt.Fprintf(tw, "journal\t%s\n", a.cfg.JournalPath())
			}
			return tw.Flush()
		},
	}
}
