package tilegemm

import (
	"context"
	"testing"
)

// SelectOrFail selects an instance and fails the test if unsuccessful
func SelectOrFail(t testing.TB, s *Selector, d *ProblemDescriptor) *ExecutionPlan {
	t.Helper()
	plan, err := s.Select(d)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	return plan
}

// LaunchOrFail launches plan with a fresh workspace and fails the test if
// unsuccessful
func LaunchOrFail(t testing.TB, l *Launcher, plan *ExecutionPlan, ops Operands) {
	t.Helper()
	err := l.Launch(context.Background(), plan, ops, AllocWorkspace(plan.WorkspaceSize))
	if err != nil {
		t.Fatalf("Launch failed: %v", err)
	}
}

// InstanceOrFail builds an instance and fails the test if unsuccessful
func InstanceOrFail(t testing.TB, family string, types TypeSet, layouts LayoutSet, spec Specialization, plan TilePlan) *Instance {
	t.Helper()
	inst, err := NewInstance(family, types, layouts, spec, plan)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	return inst
}
