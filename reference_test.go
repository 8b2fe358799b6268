package tilegemm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReferenceGEMM checks the reference against hand-computed products
func TestReferenceGEMM(t *testing.T) {
	ref := Reference{}

	// [1 2 3]   [1 0]   [ 4 5]
	// [4 5 6] x [0 1] = [10 11]
	//           [1 1]
	d := NewGemm(2, 2, 3, f32Types, nnLayouts)
	a := BufferFrom(F32, []float64{1, 2, 3, 4, 5, 6})
	b := BufferFrom(F32, []float64{1, 0, 0, 1, 1, 1})
	assert.Equal(t, []float64{4, 5, 10, 11}, ref.GEMM(d, a, b))

	// The same A stored column major
	d.A.Layout = ColMajor
	a = BufferFrom(F32, []float64{1, 4, 2, 5, 3, 6})
	assert.Equal(t, []float64{4, 5, 10, 11}, ref.GEMM(d, a, b))
}

func TestReferenceContractAppliesEpilogue(t *testing.T) {
	ref := Reference{}
	d := NewGemm(2, 2, 3, f32Types, nnLayouts)
	d.Epilogue = BiasReLU{}
	d.Aux = []AuxDesc{{Type: F32, Broadcast: AuxPerColumn}}
	require.NoError(t, d.Validate())

	ops := Operands{
		A:   BufferFrom(F32, []float64{1, 2, 3, 4, 5, 6}),
		B:   BufferFrom(F32, []float64{1, 0, 0, 1, 1, 1}),
		Aux: []Buffer{BufferFrom(F32, []float64{-6, 1})},
	}
	assert.Equal(t, []float64{0, 6, 4, 12}, ref.Contract(d, ops))
}

func TestReferenceConvBwdWeight(t *testing.T) {
	ref := Reference{}

	// One channel, 1x1 filter: the gradient is the dot product of dOut and
	// the input over every pixel
	p := convCase(1, 1, 1, 1, 2, 1, 1, 0, 1)
	dOut := BufferFrom(F32, []float64{1, 2, 3, 4})
	in := BufferFrom(F32, []float64{1, 1, 2, 2})
	assert.Equal(t, []float64{1 + 2 + 6 + 8}, ref.ConvBwdWeight(p, dOut, in))

	// 2x2 filter over a padded 2x2 input: each tap sees one output pixel
	// per input pixel it overlaps
	p = convCase(1, 1, 1, 1, 2, 2, 1, 1, 1)
	require.Equal(t, 3, p.OutputHeight())
	dOut = BufferFrom(F32, GenerateSequence(9, 1, 0))
	in = BufferFrom(F32, []float64{1, 2, 3, 4})
	assert.Equal(t, []float64{10, 10, 10, 10}, ref.ConvBwdWeight(p, dOut, in))
}

func TestReferenceRound(t *testing.T) {
	ref := Reference{}
	assert.Equal(t, []float64{127, -128, 3, -3}, ref.Round(I8, []float64{300, -300, 2.5, -2.5}))
	assert.Equal(t, []float64{1, 2048}, ref.Round(F16, []float64{1, 2049}))
}

func TestReferenceOutputColumnMajor(t *testing.T) {
	d := NewGemm(2, 3, 4, f32Types, LayoutSet{A: RowMajor, B: RowMajor, C: ColMajor})
	c := BufferFrom(F32, []float64{1, 4, 2, 5, 3, 6})
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, Reference{}.Output(d, c))
}
