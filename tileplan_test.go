package tilegemm

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTilePlanCopies(t *testing.T) {
	p := smallPlan(4, 4, 4)
	plan, err := NewTilePlan(p, F32, F32)
	require.NoError(t, err)

	if diff := cmp.Diff(p, *plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	p.MPerBlock = 64
	assert.Equal(t, 32, plan.MPerBlock)
}

func TestTilePlanDerived(t *testing.T) {
	plan, err := NewTilePlan(smallPlan(4, 4, 4), F32, F32)
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Waves())
	assert.Equal(t, 1, plan.MWaves())
	assert.Equal(t, 1, plan.NWaves())
	assert.Equal(t, 32, plan.MPerShuffle())
	assert.Equal(t, 32, plan.NPerShuffle())
	assert.Equal(t, "32x32x32_32x32_1x1_b64_p2", plan.String())

	gx, gy := plan.Grid(100, 33)
	assert.Equal(t, 4, gx)
	assert.Equal(t, 2, gy)

	// Two stages of 32x32 A and B slabs
	assert.Equal(t, 2*(32*32+32*32)*4, plan.StagingBytes(F32, F32))
	assert.Equal(t, 2*(32*32+32*32)*2, plan.StagingBytes(F16, F32))

	padded := *plan
	padded.ATransfer.LdsAddExtra = true
	assert.Equal(t, 2*(32*33+32*32)*4, padded.StagingBytes(F32, F32))
}

func TestTilePlanMultiWave(t *testing.T) {
	// 256 threads as 2x2 waves, each wave 2x2 subtiles of 32x32
	p := TilePlan{
		BlockSize: 256,
		MPerBlock: 128, NPerBlock: 128, KPerBlock: 32,
		AK1: 4, BK1: 4,
		MPerXdl: 32, NPerXdl: 32,
		MXdlPerWave: 2, NXdlPerWave: 2,
		ATransfer:      TransferDesc{ClusterLengths: [3]int{8, 32, 1}, SrcVectorDim: VectorDimK1, SrcScalarPerVector: 4, DstScalarPerVectorK1: 4},
		BTransfer:      TransferDesc{ClusterLengths: [3]int{8, 32, 1}, SrcVectorDim: VectorDimMN, SrcScalarPerVector: 4, DstScalarPerVectorK1: 4},
		Shuffle:        ShuffleDesc{MXdlPerWavePerShuffle: 1, NXdlPerWavePerShuffle: 1, ClusterLengths: [4]int{1, 32, 1, 8}, ScalarPerVector: 4},
		PrefetchStages: 2,
	}
	plan, err := NewTilePlan(p, F32, F32)
	require.NoError(t, err)

	assert.Equal(t, 4, plan.Waves())
	assert.Equal(t, 2, plan.MWaves())
	assert.Equal(t, 2, plan.NWaves())
	assert.Equal(t, 64, plan.MPerShuffle())
	assert.Equal(t, 64, plan.NPerShuffle())

	// A 128 KiB region cannot hold five stages of this tile
	p.PrefetchStages = 5
	_, err = NewTilePlan(p, F32, F32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging memory")
}

func TestTilePlanRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TilePlan)
		want   string
	}{
		{"zero block", func(p *TilePlan) { p.BlockSize = 0 }, "BlockSize must be positive"},
		{"zero K1", func(p *TilePlan) { p.AK1 = 0 }, "AK1 must be positive"},
		{"partial wave", func(p *TilePlan) { p.BlockSize = 96 }, "multiple of 64"},
		{"oversized block", func(p *TilePlan) { p.BlockSize = 2048 }, "up to 1024"},
		{"single stage", func(p *TilePlan) { p.PrefetchStages = 1 }, "prefetch stages"},
		{"M not subtile multiple", func(p *TilePlan) { p.MPerBlock = 48 }, "MPerBlock 48"},
		{"N not subtile multiple", func(p *TilePlan) { p.NPerBlock = 40 }, "NPerBlock 40"},
		{"idle waves", func(p *TilePlan) { p.BlockSize = 128 }, "waves do not fill"},
		{"K not K1 multiple", func(p *TilePlan) { p.BK1 = 3 }, "not divisible by AK1"},
		{"cluster size", func(p *TilePlan) { p.ATransfer.ClusterLengths = [3]int{8, 4, 1} }, "does not cover 64 threads"},
		{"cluster shape", func(p *TilePlan) { p.BTransfer.ClusterLengths = [3]int{16, 4, 1} }, "does not divide block slice"},
		{"negative cluster", func(p *TilePlan) { p.BTransfer.ClusterLengths = [3]int{-8, -8, 1} }, "non-positive"},
		{"vector dim", func(p *TilePlan) { p.ATransfer.SrcVectorDim = 0 }, "neither MN nor K1"},
		{"zero vector", func(p *TilePlan) { p.BTransfer.DstScalarPerVectorK1 = 0 }, "must be positive"},
		{"source vector", func(p *TilePlan) { p.BTransfer.SrcScalarPerVector = 8 }, "source vector 8"},
		{"staging vector", func(p *TilePlan) { p.ATransfer.DstScalarPerVectorK1 = 8 }, "staging vector 8"},
		{"shuffle step", func(p *TilePlan) { p.Shuffle.MXdlPerWavePerShuffle = 2 }, "shuffle step"},
		{"shuffle form", func(p *TilePlan) { p.Shuffle.ClusterLengths = [4]int{2, 8, 1, 4} }, "1 x CM x 1 x CN"},
		{"shuffle size", func(p *TilePlan) { p.Shuffle.ClusterLengths = [4]int{1, 16, 1, 8} }, "needs 128 threads, block has 64"},
		{"shuffle tile", func(p *TilePlan) { p.Shuffle.ClusterLengths = [4]int{1, 64, 1, 1} }, "does not divide 32x32"},
		{"shuffle vector", func(p *TilePlan) { p.Shuffle.ScalarPerVector = 16 }, "not divisible by vector 16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallPlan(4, 4, 4)
			tt.mutate(&p)
			plan, err := NewTilePlan(p, F32, F32)
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, ErrInvalidPlan))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTilePlanPartialShuffleCluster(t *testing.T) {
	p := smallPlan(4, 4, 4)
	p.Shuffle.ClusterLengths = [4]int{1, 8, 1, 4}
	plan, err := NewTilePlan(p, F32, F32)
	require.NoError(t, err)
	assert.Equal(t, 32, plan.MPerShuffle())
	assert.Equal(t, 32, plan.NPerShuffle())
}

func TestTilePlanCapacity(t *testing.T) {
	p := smallPlan(4, 4, 4)
	err := p.Validate(F32, F32, 16*1024)
	assert.NoError(t, err)

	err = p.Validate(F32, F32, 16*1024-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16384 bytes")

	err = p.Validate(InvalidType, F32, StagingCapacity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid element types")
}
