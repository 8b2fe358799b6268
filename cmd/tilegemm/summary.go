package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/tilegemm/internal/report"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Summarize a session file written with --record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := report.Load(args[0])
			if err != nil {
				return err
			}
			if _, failed := report.Summarize(cmd.OutOrStdout(), results); failed > 0 {
				return fmt.Errorf("%d recorded launches failed", failed)
			}
			return nil
		},
	}
}
