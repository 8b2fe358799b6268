// Package library holds the built-in instance tables and a process-wide
// catalog built from them.
//
// The catalog is populated on first use and sealed; every query after that
// is read-only and safe for concurrent use.
package library

import (
	"context"
	"sync"

	tg "github.com/LynnColeArt/tilegemm"
)

var (
	once    sync.Once
	catalog *tg.Catalog

	workspaces = tg.NewWorkspacePool()
)

func tables() []table {
	out := []table{gemmI8KmNkMn, gemmF16WaveletTN, convBwdWeightDefault, convBwdWeight1x1}
	return append(out, gemmF32Tables...)
}

// Register adds every built-in instance to c in table order
func Register(c *tg.Catalog) {
	for _, t := range tables() {
		t.register(c)
	}
}

// Default returns the sealed catalog of built-in instances
func Default() *tg.Catalog {
	once.Do(func() {
		c := tg.NewCatalog()
		Register(c)
		c.Seal()
		tg.Logger().WithField("instances", c.Len()).Debug("instance library ready")
		catalog = c
	})
	return catalog
}

// ListInstances returns the built-in instances for an operation, element
// types and layouts, in registration order
func ListInstances(op tg.OpKind, types tg.TypeSet, layouts tg.LayoutSet) []*tg.Instance {
	return Default().ListInstances(op, types, layouts)
}

// Select picks a built-in instance for d
func Select(d *tg.ProblemDescriptor, opts ...tg.Option) (*tg.ExecutionPlan, error) {
	return tg.NewSelector(Default(), opts...).Select(d)
}

// Run selects an instance for d and launches it, borrowing any split-K
// workspace from a shared pool
func Run(ctx context.Context, d *tg.ProblemDescriptor, ops tg.Operands, opts ...tg.Option) (*tg.ExecutionPlan, error) {
	plan, err := Select(d, opts...)
	if err != nil {
		return nil, err
	}
	ws := workspaces.Get(plan.WorkspaceSize)
	defer workspaces.Put(ws)

	if err := tg.NewLauncher(opts...).Launch(ctx, plan, ops, ws); err != nil {
		return plan, err
	}
	return plan, nil
}
