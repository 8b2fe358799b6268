// Command tilegemm lists the built-in contraction instances, shows which one
// the selector picks for a problem, and runs and verifies launches.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	tg "github.com/LynnColeArt/tilegemm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "tilegemm",
		Short:        "Inspect, select and run tiled contraction instances",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger := logrus.New()
			logger.SetOutput(cmd.ErrOrStderr())
			logger.SetLevel(level)
			tg.SetLogger(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug shows every rejected instance)")

	root.AddCommand(
		newListCmd(),
		newSelectCmd(),
		newRunCmd(),
		newVerifyCmd(),
		newSummaryCmd(),
		newVersionCmd(),
	)
	return root
}
