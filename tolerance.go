package tilegemm

import (
	"fmt"
	"math"
)

// ToleranceConfig bounds how far a launched element may drift from the
// reference. An element passes when it is within AbsTol, within RelTol of
// the larger magnitude, or at most ULPTol float32 steps away.
type ToleranceConfig struct {
	AbsTol float32
	RelTol float32
	ULPTol int

	// CheckNaN lets a NaN match a NaN; any other pairing with NaN fails
	CheckNaN bool
}

// exactTolerance is used for integer outputs
func exactTolerance() ToleranceConfig {
	return ToleranceConfig{CheckNaN: true}
}

// Match reports whether got is an acceptable stand-in for want. Infinities
// only match an infinity of the same sign.
func (tol ToleranceConfig) Match(want, got float32) bool {
	w, g := float64(want), float64(got)
	if math.IsNaN(w) || math.IsNaN(g) {
		return tol.CheckNaN && math.IsNaN(w) && math.IsNaN(g)
	}
	if want == got {
		return true
	}
	if math.IsInf(w, 0) || math.IsInf(g, 0) {
		return false
	}

	diff := math.Abs(w - g)
	if diff <= float64(tol.AbsTol) {
		return true
	}
	if diff <= math.Max(math.Abs(w), math.Abs(g))*float64(tol.RelTol) {
		return true
	}
	return tol.ULPTol > 0 && ulpDistance(want, got) <= int64(tol.ULPTol)
}

// ulpDistance counts representable float32 values between a and b,
// across zero if the signs differ
func ulpDistance(a, b float32) int64 {
	d := orderedBits(a) - orderedBits(b)
	if d < 0 {
		return -d
	}
	return d
}

// orderedBits maps a float onto an integer line where adjacent floats are
// adjacent integers and both zeros are 0
func orderedBits(f float32) int64 {
	b := int64(math.Float32bits(f))
	if b&0x80000000 != 0 {
		return 0x80000000 - b
	}
	return b
}

// VerificationResult summarises a comparison of one launch output with the
// reference. Error maxima cover every finite pair, matching or not.
type VerificationResult struct {
	Expected int // reference length
	Actual   int // launch output length

	Mismatches    int
	FirstMismatch int // -1 when every element matches

	MaxAbsError float64
	MaxRelError float64
	MaxULPError int64
}

// VerifyOutput compares launch output with the reference after narrowing
// both to float32. Outputs of different lengths never pass.
func VerifyOutput(expected, actual []float64, tol ToleranceConfig) VerificationResult {
	r := VerificationResult{
		Expected:      len(expected),
		Actual:        len(actual),
		FirstMismatch: -1,
	}
	if r.Expected != r.Actual {
		return r
	}

	for i := range expected {
		want, got := float32(expected[i]), float32(actual[i])
		if !tol.Match(want, got) {
			r.Mismatches++
			if r.FirstMismatch < 0 {
				r.FirstMismatch = i
			}
		}
		r.observe(want, got)
	}
	return r
}

func (r *VerificationResult) observe(want, got float32) {
	w, g := float64(want), float64(got)
	if math.IsNaN(w) || math.IsNaN(g) || math.IsInf(w, 0) || math.IsInf(g, 0) {
		return
	}
	abs := math.Abs(w - g)
	r.MaxAbsError = math.Max(r.MaxAbsError, abs)
	if w != 0 {
		r.MaxRelError = math.Max(r.MaxRelError, abs/math.Abs(w))
	}
	r.MaxULPError = max(r.MaxULPError, ulpDistance(want, got))
}

// IsAcceptable reports whether the outputs had equal lengths and every
// element matched
func (r VerificationResult) IsAcceptable() bool {
	return r.Expected == r.Actual && r.Mismatches == 0
}

// String is a one-line PASS/FAIL verdict
func (r VerificationResult) String() string {
	switch {
	case r.Expected != r.Actual:
		return fmt.Sprintf("FAIL: %d values, reference has %d", r.Actual, r.Expected)
	case r.Mismatches > 0:
		return fmt.Sprintf("FAIL: %d/%d values differ, first at %d (max abs %.3g, rel %.3g, %d ulp)",
			r.Mismatches, r.Expected, r.FirstMismatch, r.MaxAbsError, r.MaxRelError, r.MaxULPError)
	default:
		return fmt.Sprintf("PASS: %d values (max abs %.3g, %d ulp)", r.Expected, r.MaxAbsError, r.MaxULPError)
	}
}

// TypeTolerance is the GEMM tolerance for results stored as t after a
// reduction of length k on this host
func TypeTolerance(t DataType, k int) ToleranceConfig {
	return typeTolerance(OperationTolerance(OpGemm, 1), t, k)
}

// typeTolerance widens a float32 tolerance for the output type. Half
// precision outputs carry one rounding of their own; integer outputs must
// match exactly.
func typeTolerance(tol ToleranceConfig, t DataType, k int) ToleranceConfig {
	// Accumulation error grows with the reduction length
	growth := float32(1)
	if k > 64 {
		growth = float32(k) / 64
	}
	switch t {
	case I8, I32:
		return exactTolerance()
	case F16:
		tol.AbsTol = 1e-3 * growth
		tol.RelTol = 2e-3
		tol.ULPTol = 0
	case BF16:
		tol.AbsTol = 8e-3 * growth
		tol.RelTol = 1.6e-2
		tol.ULPTol = 0
	default:
		tol.AbsTol *= growth
		tol.RelTol *= growth
	}
	return tol
}
