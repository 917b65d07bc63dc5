package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command line and closes the app afterwards, whether or
// not the command succeeded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, closeApp := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := closeApp(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func newRootCmd() (*cobra.Command, func() error) {
	opts := &globalOptions{}
	var a *app

	root := &cobra.Command{
		Use:   "creditguard",
		Short: "Dataset and artifact helpers for the credit-card fraud model",
		Long: `creditguard reads and writes the project's datasets and model artifacts.

Layout, relative to the project root:
  data/raw/creditcard.csv
  data/processed/<train|val|test>/data.csv
  models/<artifact file>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(opts, cmd.ErrOrStderr())
			return err
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default creditguard.yaml under the project root)")
	root.PersistentFlags().StringVar(&opts.root, "root", "", "project root (overrides config and CREDITGUARD_ROOT)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	current := func() *app { return a }
	root.AddCommand(
		newPathsCmd(current),
		newSplitCmd(current),
		newTrainCmd(current),
		newEvaluateCmd(current),
		newHistoryCmd(current),
		newWatchCmd(current),
	)
	closeApp := func() error {
		if a == nil {
			return nil
		}
		err := a.Close()
		a = nil
		return err
	}
	return root, closeApp
}
