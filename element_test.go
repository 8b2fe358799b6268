package tilegemm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerStoresSaturate(t *testing.T) {
	tests := []struct {
		in     float64
		wantI8 float64
		want32 float64
	}{
		{0, 0, 0},
		{2.5, 3, 3},
		{-2.5, -3, -3},
		{2.49, 2, 2},
		{127.6, 127, 128},
		{-1000, -128, -1000},
		{1e12, 127, math.MaxInt32},
		{-1e12, -128, math.MinInt32},
		{math.Inf(1), 127, math.MaxInt32},
		{math.NaN(), 0, 0},
	}

	for _, tt := range tests {
		i8 := NewBuffer(I8, 1)
		i8.Set(0, tt.in)
		assert.Equal(t, tt.wantI8, i8.At(0), "i8 %v", tt.in)

		i32 := NewBuffer(I32, 1)
		i32.Set(0, tt.in)
		assert.Equal(t, tt.want32, i32.At(0), "i32 %v", tt.in)
	}
}

func TestFloatStoresRound(t *testing.T) {
	assert.Equal(t, []float64{0.5, -2, 65504}, Float64s(BufferFrom(F16, []float64{0.5, -2, 65504})))
	assert.True(t, math.IsInf(BufferFrom(F16, []float64{1e6}).At(0), 1))

	// bf16 keeps 8 bits of mantissa
	bf := BufferFrom(BF16, []float64{1, 257, -3.5})
	assert.Equal(t, []float64{1, 256, -3.5}, Float64s(bf))

	f32 := BufferFrom(F32, []float64{0.1})
	assert.Equal(t, float64(float32(0.1)), f32.At(0))
}

func TestNewBuffer(t *testing.T) {
	for _, dt := range []DataType{F32, F16, BF16, I8, I32} {
		buf := NewBuffer(dt, 5)
		require.NotNil(t, buf, dt.String())
		assert.Equal(t, dt, buf.DataType())
		assert.Equal(t, 5, buf.Len())
		assert.Equal(t, make([]float64, 5), Float64s(buf))
	}
	assert.Nil(t, NewBuffer(InvalidType, 5))
	assert.Nil(t, BufferFrom(InvalidType, []float64{1}))
}

func TestGather(t *testing.T) {
	values := GenerateSequence(12, 0, 1)
	for _, dt := range []DataType{F32, F16, BF16, I8, I32} {
		buf := BufferFrom(dt, values)

		contiguous := make([]float32, 4)
		gather(contiguous, buf, 2, 1)
		assert.Equal(t, []float32{2, 3, 4, 5}, contiguous, dt.String())

		strided := make([]int32, 3)
		gather(strided, buf, 1, 4)
		assert.Equal(t, []int32{1, 5, 9}, strided, dt.String())

		assert.Equal(t, float32(7), loadElem[float32](buf, 7))
	}
}

func TestDataTypes(t *testing.T) {
	sizes := map[DataType]int{F32: 4, F16: 2, BF16: 2, I8: 1, I32: 4, InvalidType: 0}
	for dt, size := range sizes {
		assert.Equal(t, size, dt.Size(), dt.String())
	}

	for _, name := range []string{"f32", "f16", "bf16", "i8", "i32"} {
		dt, err := ParseDataType(name)
		require.NoError(t, err)
		assert.Equal(t, name, dt.String())
	}
	_, err := ParseDataType("f64")
	assert.Error(t, err)

	for _, name := range []string{"row", "col", "gnhwc", "gkyxc", "gnhwk"} {
		l, err := ParseLayout(name)
		require.NoError(t, err)
		assert.Equal(t, name, l.String())
	}
	_, err = ParseLayout("nchw")
	assert.Error(t, err)

	op, err := ParseOpKind("grouped_conv2d_bwd_weight")
	require.NoError(t, err)
	assert.Equal(t, OpGroupedConvBwdWeight, op)
	_, err = ParseOpKind("conv")
	assert.Error(t, err)
}

func TestLinearTo3D(t *testing.T) {
	grid := Dim3{X: 3, Y: 4, Z: 2}
	seen := make(map[Dim3]bool)
	for i := 0; i < grid.Size(); i++ {
		idx := linearTo3D(i, grid)
		require.Less(t, idx.X, grid.X)
		require.Less(t, idx.Y, grid.Y)
		require.Less(t, idx.Z, grid.Z)
		seen[idx] = true
	}
	assert.Len(t, seen, 24)
	assert.Equal(t, Dim3{X: 1, Y: 2, Z: 1}, linearTo3D(1+2*3+12, grid))
}
