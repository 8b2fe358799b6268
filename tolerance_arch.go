package tilegemm

import (
	"runtime"
)

// Both compute cores accumulate with acc += a*b. Go lets the compiler fuse
// that into a single rounding, and whether it does depends on GOARCH, so
// float32 results drift from the reference by a different number of steps
// per host.

// opTolerance holds the float32 bounds for one kind of launch with the
// multiply-add kept as two roundings and with it fused
type opTolerance struct {
	separate ToleranceConfig
	fused    ToleranceConfig
}

// forArch picks the bound for goarch
func (o opTolerance) forArch(goarch string) ToleranceConfig {
	if fusesMultiplyAdd(goarch) {
		return o.fused
	}
	return o.separate
}

// fusesMultiplyAdd reports whether the compiler contracts a*b+c on goarch
// by default. amd64 only does so at GOAMD64=v3 and above.
func fusesMultiplyAdd(goarch string) bool {
	switch goarch {
	case "arm64", "ppc64", "ppc64le", "s390x", "riscv64", "loong64":
		return true
	}
	return false
}

var (
	// Single pass contractions
	gemmTolerance = opTolerance{
		separate: ToleranceConfig{AbsTol: 1e-6, RelTol: 1e-5, ULPTol: 4, CheckNaN: true},
		fused:    ToleranceConfig{AbsTol: 1e-5, RelTol: 1e-4, ULPTol: 16, CheckNaN: true},
	}

	// Lowered convolutions reduce over N*Ho*Wo, usually far longer than a
	// GEMM K
	convTolerance = opTolerance{
		separate: ToleranceConfig{AbsTol: 1e-6, RelTol: 1e-5, ULPTol: 8, CheckNaN: true},
		fused:    ToleranceConfig{AbsTol: 1e-5, RelTol: 1e-4, ULPTol: 32, CheckNaN: true},
	}

	// Split-K partial sums are rounded to float32 once more before the
	// reduction pass adds them
	splitKTolerance = opTolerance{
		separate: ToleranceConfig{AbsTol: 1e-5, RelTol: 1e-4, ULPTol: 16, CheckNaN: true},
		fused:    ToleranceConfig{AbsTol: 1e-4, RelTol: 1e-3, ULPTol: 64, CheckNaN: true},
	}
)

// OperationTolerance returns the float32 tolerance on this host for an
// operation launched with kbatch splits
func OperationTolerance(op OpKind, kbatch int) ToleranceConfig {
	return operationTolerance(op, kbatch).forArch(runtime.GOARCH)
}

func operationTolerance(op OpKind, kbatch int) opTolerance {
	switch {
	case kbatch > 1:
		return splitKTolerance
	case op == OpGroupedConvBwdWeight:
		return convTolerance
	default:
		return gemmTolerance
	}
}

// ProblemTolerance is the tolerance for comparing a launch of d with the
// float64 reference after both are rounded to the output type
func ProblemTolerance(d *ProblemDescriptor) ToleranceConfig {
	return typeTolerance(OperationTolerance(d.Op, d.KBatch), d.C.Type, d.K)
}
