package tilegemm

import (
	"testing"
)

var (
	f32Types  = TypeSet{A: F32, B: F32, C: F32, Acc: F32, CShuffle: F32}
	i8Types   = TypeSet{A: I8, B: I8, C: I8, Acc: I32, CShuffle: I32}
	nnLayouts = LayoutSet{A: RowMajor, B: RowMajor, C: RowMajor}

	convLayouts = LayoutSet{A: GNHWK, B: GNHWC, C: GKYXC}
)

// smallPlan is a one-wave 32x32x32 tile. A reads along K, B along N, and
// the store cluster writes 8 columns per thread.
func smallPlan(av, bv, cv int) TilePlan {
	return TilePlan{
		BlockSize: 64,
		MPerBlock: 32, NPerBlock: 32, KPerBlock: 32,
		AK1: 4, BK1: 4,
		MPerXdl: 32, NPerXdl: 32,
		MXdlPerWave: 1, NXdlPerWave: 1,
		ATransfer: TransferDesc{
			ClusterLengths:       [3]int{8, 8, 1},
			SrcVectorDim:         VectorDimK1,
			SrcScalarPerVector:   av,
			DstScalarPerVectorK1: 4,
		},
		BTransfer: TransferDesc{
			ClusterLengths:       [3]int{8, 8, 1},
			SrcVectorDim:         VectorDimMN,
			SrcScalarPerVector:   bv,
			DstScalarPerVectorK1: 4,
		},
		Shuffle: ShuffleDesc{
			MXdlPerWavePerShuffle: 1,
			NXdlPerWavePerShuffle: 1,
			ClusterLengths:        [4]int{1, 16, 1, 4},
			ScalarPerVector:       cv,
		},
		PrefetchStages: 2,
	}
}

// convPlan is smallPlan with both operands read along M/N, as channels-last
// convolution tensors require
func convPlan() TilePlan {
	p := smallPlan(4, 4, 4)
	p.ATransfer.SrcVectorDim = VectorDimMN
	return p
}

// gemmCatalog registers the small plan under every GEMM specialization,
// widest vectors first
func gemmCatalog(t testing.TB, types TypeSet) *Catalog {
	t.Helper()
	c := NewCatalog()
	for _, s := range []struct {
		spec       Specialization
		av, bv, cv int
	}{
		{GemmDefault, 4, 4, 4},
		{GemmKPadding, 1, 4, 4},
		{GemmMNPadding, 4, 4, 4},
		{GemmMNKPadding, 1, 1, 1},
	} {
		c.MustRegister(InstanceOrFail(t, "test_gemm", types, nnLayouts, s.spec, smallPlan(s.av, s.bv, s.cv)))
	}
	return c
}

func convCatalog(t testing.TB) *Catalog {
	t.Helper()
	c := NewCatalog()
	c.MustRegister(InstanceOrFail(t, "test_conv", f32Types, convLayouts, ConvBwdWeightFilter1x1Stride1Pad0, convPlan()))
	c.MustRegister(InstanceOrFail(t, "test_conv", f32Types, convLayouts, ConvBwdWeightDefault, convPlan()))
	return c
}

// wantOutput is the rounded reference result of d over ops
func wantOutput(d *ProblemDescriptor, ops Operands) []float64 {
	ref := Reference{}
	return ref.Round(d.C.Type, ref.Contract(d, ops))
}
