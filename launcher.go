package tilegemm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Operands binds caller memory to a launch. Aux holds one buffer per
// auxiliary epilogue input, in the order of ProblemDescriptor.Aux.
type Operands struct {
	A, B, C Buffer
	Aux     []Buffer
}

// Launcher runs execution plans on the emulated device
type Launcher struct {
	opts options
}

// NewLauncher creates a launcher
func NewLauncher(opts ...Option) *Launcher {
	return &Launcher{opts: buildOptions(opts)}
}

var defaultLauncher = NewLauncher()

// Launch runs plan on the default launcher
func Launch(ctx context.Context, plan *ExecutionPlan, ops Operands, workspace []byte) error {
	return defaultLauncher.Launch(ctx, plan, ops, workspace)
}

// Launch executes plan over ops. Descriptor, operand and workspace problems
// are reported before any tile runs. Once tiles are running, a failure in
// any of them fails the whole launch and C holds no defined result.
func (l *Launcher) Launch(ctx context.Context, plan *ExecutionPlan, ops Operands, workspace []byte) error {
	if plan == nil || plan.Instance == nil {
		return NewDescriptorError("Launch", "nil execution plan")
	}
	d := &plan.Problem
	if err := d.Validate(); err != nil {
		return err
	}
	if err := plan.Instance.Check(d); err != nil {
		return NewDescriptorError("Launch", "instance %s cannot run this problem: %v", plan.Instance.Name(), err)
	}
	if err := checkOperands(d, ops); err != nil {
		return err
	}
	if need := d.WorkspaceSize(); len(workspace) < need {
		return NewWorkspaceError("Launch", need, len(workspace))
	}

	log := l.opts.log().WithFields(logrus.Fields{
		"instance": plan.Instance.Name(),
		"grid":     fmt.Sprintf("%dx%dx%d", plan.Grid.X, plan.Grid.Y, plan.Grid.Z),
		"kbatch":   d.KBatch,
	})
	log.Debug("launch")

	var err error
	if d.AccType() == I32 {
		err = launchTyped[int32](ctx, l.opts.workers, plan, ops, workspace)
	} else {
		err = launchTyped[float32](ctx, l.opts.workers, plan, ops, workspace)
	}
	if err != nil {
		if !IsExecutionError(err) {
			err = NewExecutionError("Launch", "launch aborted", err)
		}
		log.WithError(err).Warn("launch failed")
		return err
	}
	return nil
}

func launchTyped[T accumulator](ctx context.Context, workers int, plan *ExecutionPlan, ops Operands, workspace []byte) error {
	d := &plan.Problem
	var partial []T
	if d.KBatch > 1 {
		var err error
		partial, err = workspaceView[T](workspace, d.KBatch*d.Batch*d.M*d.N)
		if err != nil {
			return err
		}
	}

	k := newKernel[T](plan.Instance, d, ops, partial)
	if err := runGrid(ctx, plan.Grid, workers, k.runTile); err != nil {
		return err
	}
	if partial == nil {
		return nil
	}
	return runGrid(ctx, Dim3{X: d.M, Y: d.Batch, Z: 1}, workers, k.reduceRow)
}

// reduceRow sums the split-K partials of one output row in ascending split
// order and applies the epilogue. The fixed order makes the result
// independent of how tiles were scheduled.
func (k *kernel[T]) reduceRow(idx Dim3) error {
	return guard("reduce", idx, func() error {
		d := k.desc
		m, batch := idx.X, idx.Y
		auxVals := make([]float64, len(k.aux))
		plane := d.Batch * d.M * d.N
		row := (batch*d.M + m) * d.N
		for n := 0; n < d.N; n++ {
			var sum T
			for s := 0; s < d.KBatch; s++ {
				sum += k.partial[s*plane+row+n]
			}
			for i, a := range k.aux {
				auxVals[i] = a.at(batch, m, n)
			}
			k.c.buf.Set(k.c.offset(batch, m, n), k.epi.Apply(float64(sum), auxVals...))
		}
		return nil
	})
}

// checkOperands verifies buffer presence, element types and lengths
// against the descriptor
func checkOperands(d *ProblemDescriptor, ops Operands) error {
	const op = "Launch"
	fa, fb, fc := d.Footprint()
	for _, o := range []struct {
		name string
		buf  Buffer
		typ  DataType
		need int
	}{
		{"A", ops.A, d.A.Type, fa},
		{"B", ops.B, d.B.Type, fb},
		{"C", ops.C, d.C.Type, fc},
	} {
		if err := checkBuffer(o.name, o.buf, o.typ, o.need); err != nil {
			return err
		}
	}
	if len(ops.Aux) != len(d.Aux) {
		return NewDescriptorError(op, "%d aux buffers for %d aux operands", len(ops.Aux), len(d.Aux))
	}
	for i, a := range d.Aux {
		if err := checkBuffer(fmt.Sprintf("aux %d", i), ops.Aux[i], a.Type, d.AuxFootprint(i)); err != nil {
			return err
		}
	}
	return nil
}

func checkBuffer(name string, buf Buffer, typ DataType, need int) error {
	const op = "Launch"
	if buf == nil {
		return NewDescriptorError(op, "%s: missing buffer", name)
	}
	if buf.DataType() != typ {
		return NewDescriptorError(op, "%s: buffer holds %v, descriptor says %v", name, buf.DataType(), typ)
	}
	if buf.Len() < need {
		return NewDescriptorError(op, "%s: buffer of %d elements, need %d", name, buf.Len(), need)
	}
	return nil
}

// Canceled reports whether err ended a launch because its context was
// canceled or timed out
func Canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
