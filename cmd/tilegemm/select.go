package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	tg "github.com/LynnColeArt/tilegemm"
	"github.com/LynnColeArt/tilegemm/library"
)

func newSelectCmd() *cobra.Command {
	var (
		pf      problemFlags
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Show which instance serves a problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := pf.descriptor()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			p := message.NewPrinter(language.English)

			cands, rejections, err := tg.NewSelector(library.Default()).Candidates(d)
			if err != nil {
				return err
			}
			if explain || len(cands) == 0 {
				for _, r := range rejections {
					fmt.Fprintf(out, "rejected %s: %s\n", r.Instance, r.Reason)
				}
			}

			plan, err := library.Select(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "problem   %s M=%d N=%d K=%d batch=%d kbatch=%d\n", d.Key(), d.M, d.N, d.K, d.Batch, d.KBatch)
			fmt.Fprintf(out, "instance  %s (#%d)\n", plan.Instance.Name(), plan.InstanceIndex)
			fmt.Fprintf(out, "grid      %d x %d x %d\n", plan.Grid.X, plan.Grid.Y, plan.Grid.Z)
			p.Fprintf(out, "workspace %d bytes\n", plan.WorkspaceSize)
			p.Fprintf(out, "%d applicable, %d rejected\n", len(cands), len(rejections))
			return nil
		},
	}
	pf.register(cmd.Flags())
	cmd.Flags().BoolVar(&explain, "explain", false, "print why each other instance was rejected")
	return cmd
}
