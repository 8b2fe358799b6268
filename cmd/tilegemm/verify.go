package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	tg "github.com/LynnColeArt/tilegemm"
	"github.com/LynnColeArt/tilegemm/internal/report"
	"github.com/LynnColeArt/tilegemm/library"
)

func newVerifyCmd() *cobra.Command {
	var (
		pf problemFlags
		lf launchFlags
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Launch every instance that accepts a problem and compare each with the reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := pf.descriptor()
			if err != nil {
				return err
			}
			cands, _, err := tg.NewSelector(library.Default()).Candidates(d)
			if err != nil {
				return err
			}
			if len(cands) == 0 {
				// Select builds the error that lists the rejections
				_, err := library.Select(d)
				return err
			}

			launcher := tg.NewLauncher(lf.options()...)
			rec := report.NewRecorder(lf.record)
			problem := describe(d)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "%s\t%s\t%s\n", upper.String("instance"), upper.String("specialization"), upper.String("result"))

			failed := 0
			for _, c := range cands {
				plan, err := library.Select(d, tg.WithRankPolicy(only(c.Index)))
				if err != nil {
					return err
				}
				ops := tg.NewOperands(d, lf.seed, lf.min, lf.max)
				if err := launcher.Launch(cmd.Context(), plan, ops, tg.AllocWorkspace(plan.WorkspaceSize)); err != nil {
					if tg.Canceled(err) {
						return err
					}
					failed++
					fmt.Fprintf(tw, "%s\t%s\t%v\n", c.Instance.Name(), c.Instance.Specialization(), err)
					if err := rec.Fail(c.Instance.Name(), problem, err); err != nil {
						return err
					}
					continue
				}
				res, ok := verifyLaunch(d, ops)
				result := report.Result{
					Instance:    c.Instance.Name(),
					Problem:     problem,
					Status:      report.StatusPass,
					Launches:    1,
					MaxAbsError: res.MaxAbsError,
				}
				if !ok {
					failed++
					result.Status, result.Error = report.StatusFail, res.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Instance.Name(), c.Instance.Specialization(), res)
				if err := rec.Add(result); err != nil {
					return err
				}
			}
			tw.Flush()

			if failed > 0 {
				return errors.New(message.NewPrinter(language.English).Sprintf("%d of %d instances failed", failed, len(cands)))
			}
			return nil
		},
	}
	pf.register(cmd.Flags())
	lf.register(cmd.Flags())
	return cmd
}

// only ranks the candidate registered at index first
func only(index int) tg.RankPolicy {
	return tg.RankFunc(func(_ *tg.ProblemDescriptor, cands []tg.Candidate) []tg.Candidate {
		for _, c := range cands {
			if c.Index == index {
				return []tg.Candidate{c}
			}
		}
		return cands
	})
}
