package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	tg "github.com/LynnColeArt/tilegemm"
	"github.com/LynnColeArt/tilegemm/internal/perf"
	"github.com/LynnColeArt/tilegemm/internal/report"
	"github.com/LynnColeArt/tilegemm/library"
)

// launchFlags are shared by the commands that execute instances
type launchFlags struct {
	workers int
	seed    uint64
	min     int
	max     int
	record  string
}

func (f *launchFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.workers, "workers", 0, "worker goroutines per launch (0 uses every CPU)")
	fs.Uint64Var(&f.seed, "seed", 42, "seed for generated operands")
	fs.IntVar(&f.min, "min", -4, "smallest generated input value")
	fs.IntVar(&f.max, "max", 4, "largest generated input value")
	fs.StringVar(&f.record, "record", "", "write results to this JSON session file")
}

func (f *launchFlags) options() []tg.Option {
	if f.workers > 0 {
		return []tg.Option{tg.WithWorkers(f.workers)}
	}
	return nil
}

func newRunCmd() *cobra.Command {
	var (
		pf         problemFlags
		lf         launchFlags
		iterations int
		noVerify   bool
		counters   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select an instance for a problem, launch it and check the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if iterations < 1 {
				return fmt.Errorf("--iterations must be at least 1, got %d", iterations)
			}
			d, err := pf.descriptor()
			if err != nil {
				return err
			}
			plan, err := library.Select(d, lf.options()...)
			if err != nil {
				return err
			}

			ops := tg.NewOperands(d, lf.seed, lf.min, lf.max)
			ws := tg.AllocWorkspace(plan.WorkspaceSize)
			launcher := tg.NewLauncher(lf.options()...)

			rec := report.NewRecorder(lf.record)
			problem := describe(d)

			c, err := perf.Measure(func() error {
				for i := 0; i < iterations; i++ {
					if err := launcher.Launch(cmd.Context(), plan, ops, ws); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				if rerr := rec.Fail(plan.Instance.Name(), problem, err); rerr != nil {
					tg.Logger().WithError(rerr).Warn("record failed")
				}
				return err
			}

			out := cmd.OutOrStdout()
			result := reportTiming(out, plan, c.Duration, iterations)
			result.Problem = problem
			result.Cycles = c.PerOp(iterations).Cycles
			if counters {
				fmt.Fprint(out, c.PerOp(iterations))
			}

			var verr error
			if !noVerify {
				res, ok := verifyLaunch(d, ops)
				fmt.Fprintln(out, res)
				result.MaxAbsError = res.MaxAbsError
				if !ok {
					verr = fmt.Errorf("%s disagrees with the reference", plan.Instance.Name())
					result.Status, result.Error = report.StatusFail, verr.Error()
				}
			}
			if err := rec.Add(result); err != nil {
				return err
			}
			return verr
		},
	}
	pf.register(cmd.Flags())
	lf.register(cmd.Flags())
	cmd.Flags().IntVar(&iterations, "iterations", 5, "timed launches")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the reference comparison")
	cmd.Flags().BoolVar(&counters, "counters", false, "print hardware counters per launch")
	return cmd
}

func reportTiming(w io.Writer, plan *tg.ExecutionPlan, total time.Duration, iterations int) report.Result {
	d := plan.Problem
	avg := total / time.Duration(iterations)
	flops := 2 * float64(d.M) * float64(d.N) * float64(d.K) * float64(d.Batch)
	var gflops float64
	if avg > 0 {
		gflops = flops / avg.Seconds() / 1e9
	}

	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s\n", plan)
	p.Fprintf(w, "%d launches, avg %v, %.2f GFLOP/s\n", iterations, avg, gflops)

	tg.Logger().WithFields(logrus.Fields{
		"instance": plan.Instance.Name(),
		"avg":      avg,
		"gflops":   gflops,
	}).Info("run complete")

	return report.Result{
		Instance: plan.Instance.Name(),
		Status:   report.StatusPass,
		Launches: iterations,
		Duration: avg,
		GFLOPS:   gflops,
	}
}

func describe(d *tg.ProblemDescriptor) string {
	return fmt.Sprintf("%s %dx%dx%d batch=%d kbatch=%d", d.Key(), d.M, d.N, d.K, d.Batch, d.KBatch)
}

// verifyLaunch compares the output in ops with the float64 reference
func verifyLaunch(d *tg.ProblemDescriptor, ops tg.Operands) (tg.VerificationResult, bool) {
	var ref tg.Reference
	want := ref.Round(d.C.Type, ref.Contract(d, ops))
	got := ref.Output(d, ops.C)
	res := tg.VerifyOutput(want, got, tg.ProblemTolerance(d))
	return res, res.IsAcceptable()
}
