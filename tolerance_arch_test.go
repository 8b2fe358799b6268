package tilegemm

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFusesMultiplyAdd(t *testing.T) {
	for goarch, fused := range map[string]bool{
		"amd64":   false,
		"386":     false,
		"wasm":    false,
		"arm64":   true,
		"ppc64le": true,
		"s390x":   true,
		"riscv64": true,
	} {
		assert.Equal(t, fused, fusesMultiplyAdd(goarch), goarch)
	}
}

func TestOperationToleranceForArch(t *testing.T) {
	for name, o := range map[string]opTolerance{
		"gemm":    gemmTolerance,
		"conv":    convTolerance,
		"split-K": splitKTolerance,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, o.separate, o.forArch("amd64"))
			assert.Equal(t, o.fused, o.forArch("arm64"))

			// A fused host rounds differently, never more tightly
			assert.Greater(t, o.fused.AbsTol, o.separate.AbsTol)
			assert.Greater(t, o.fused.RelTol, o.separate.RelTol)
			assert.Greater(t, o.fused.ULPTol, o.separate.ULPTol)
			assert.True(t, o.separate.CheckNaN)
			assert.True(t, o.fused.CheckNaN)
		})
	}
}

func TestOperationTolerance(t *testing.T) {
	tests := []struct {
		name   string
		op     OpKind
		kbatch int
		want   opTolerance
	}{
		{"gemm", OpGemm, 1, gemmTolerance},
		{"split-K gemm", OpGemm, 4, splitKTolerance},
		{"conv", OpGroupedConvBwdWeight, 1, convTolerance},
		{"split-K conv", OpGroupedConvBwdWeight, 2, splitKTolerance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, operationTolerance(tt.op, tt.kbatch))
			assert.Equal(t, tt.want.forArch(runtime.GOARCH), OperationTolerance(tt.op, tt.kbatch))
		})
	}

	// Split reductions are looser than a single pass on any host
	single, split := OperationTolerance(OpGemm, 1), OperationTolerance(OpGemm, 8)
	assert.Less(t, single.RelTol, split.RelTol)
	assert.Less(t, single.ULPTol, split.ULPTol)
}

func TestProblemTolerance(t *testing.T) {
	t.Run("int8", func(t *testing.T) {
		d := NewGemm(64, 64, 4096, i8Types, nnLayouts)
		assert.Equal(t, exactTolerance(), ProblemTolerance(d))
	})

	t.Run("split-K float32", func(t *testing.T) {
		d := NewGemm(64, 64, 1024, f32Types, nnLayouts)
		d.KBatch = 4
		base := splitKTolerance.forArch(runtime.GOARCH)

		tol := ProblemTolerance(d)
		assert.Equal(t, 16*base.AbsTol, tol.AbsTol)
		assert.Equal(t, 16*base.RelTol, tol.RelTol)
		assert.Equal(t, base.ULPTol, tol.ULPTol)
	})

	t.Run("half precision conv", func(t *testing.T) {
		p := convCase(1, 4, 8, 8, 16, 1, 1, 0, 1)
		d, err := p.LowerBwdWeight(F16, F16)
		require.NoError(t, err)
		require.Equal(t, 4*16*16, d.K)

		tol := ProblemTolerance(d)
		assert.Equal(t, float32(1e-3)*16, tol.AbsTol)
		assert.Equal(t, float32(2e-3), tol.RelTol)
		assert.Zero(t, tol.ULPTol)
	})
}
