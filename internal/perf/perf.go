// Package perf reads hardware performance counters around a measured
// function. Where counters are unavailable only the wall time is reported.
package perf

import (
	"fmt"
	"strings"
	"time"
)

// Counters holds one measurement
type Counters struct {
	Duration time.Duration

	Cycles       uint64
	Instructions uint64
	BranchMisses uint64
	CacheMisses  uint64
	L1DMisses    uint64
	LLCMisses    uint64

	// Hardware is false when only Duration was measured
	Hardware bool
}

// IPC is instructions per cycle, or zero without cycle counts
func (c Counters) IPC() float64 {
	if c.Cycles == 0 {
		return 0
	}
	return float64(c.Instructions) / float64(c.Cycles)
}

// PerOp divides every count by n launches
func (c Counters) PerOp(n int) Counters {
	if n <= 1 {
		return c
	}
	u := uint64(n)
	return Counters{
		Duration:     c.Duration / time.Duration(n),
		Cycles:       c.Cycles / u,
		Instructions: c.Instructions / u,
		BranchMisses: c.BranchMisses / u,
		CacheMisses:  c.CacheMisses / u,
		L1DMisses:    c.L1DMisses / u,
		LLCMisses:    c.LLCMisses / u,
		Hardware:     c.Hardware,
	}
}

func (c Counters) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "duration      %v\n", c.Duration)
	if !c.Hardware {
		sb.WriteString("counters      unavailable\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "cycles        %d\n", c.Cycles)
	fmt.Fprintf(&sb, "instructions  %d\n", c.Instructions)
	fmt.Fprintf(&sb, "ipc           %.2f\n", c.IPC())
	fmt.Fprintf(&sb, "branch-misses %d\n", c.BranchMisses)
	fmt.Fprintf(&sb, "cache-misses  %d\n", c.CacheMisses)
	fmt.Fprintf(&sb, "l1d-misses    %d\n", c.L1DMisses)
	fmt.Fprintf(&sb, "llc-misses    %d\n", c.LLCMisses)
	return sb.String()
}

// Measure runs fn between Start and Stop of a fresh Monitor. If the
// counters cannot be opened fn still runs and only the wall time is kept.
func Measure(fn func() error) (Counters, error) {
	m := NewMonitor()
	hw := m.Start() == nil

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	var c Counters
	if hw {
		c = m.Stop()
	}
	c.Duration = elapsed
	if err != nil {
		return Counters{}, err
	}
	return c, nil
}
