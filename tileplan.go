package tilegemm

import (
	"fmt"
)

// Transfer vector dimensions inside a K0 × MN × K1 staging slice
const (
	VectorDimMN = 1
	VectorDimK1 = 2
)

// TransferDesc describes how a thread group cooperatively copies one
// operand chunk from main memory into staging memory
type TransferDesc struct {
	// ClusterLengths arranges the group's threads over K0 × MN × K1.
	// The product must equal the group size.
	ClusterLengths [3]int
	// SrcVectorDim is the dimension read with vector loads (VectorDimMN
	// or VectorDimK1); it must be the operand's contiguous dimension when
	// SrcScalarPerVector > 1
	SrcVectorDim       int
	SrcScalarPerVector int
	// DstScalarPerVectorK1 is the vector width of staging stores
	DstScalarPerVectorK1 int
	// LdsAddExtra pads every K0 slab by one MN row to spread bank access
	LdsAddExtra bool
}

// ShuffleDesc describes the C-shuffle write-back: accumulators are staged
// through an on-chip tile of MXdlPerWavePerShuffle × NXdlPerWavePerShuffle
// subtiles per wave, then stored by a thread cluster of
// 1 × CM × 1 × CN threads writing ScalarPerVector elements along N
type ShuffleDesc struct {
	MXdlPerWavePerShuffle int
	NXdlPerWavePerShuffle int
	ClusterLengths        [4]int
	ScalarPerVector       int
}

// TilePlan is the immutable decomposition of one kernel variant. Build it
// with NewTilePlan; a plan that fails validation never reaches a catalog.
type TilePlan struct {
	BlockSize int

	MPerBlock int
	NPerBlock int
	KPerBlock int
	AK1       int
	BK1       int

	// Compute unit subtile and repeats per wave
	MPerXdl     int
	NPerXdl     int
	MXdlPerWave int
	NXdlPerWave int

	ATransfer TransferDesc
	BTransfer TransferDesc
	Shuffle   ShuffleDesc

	// PrefetchStages is the number of staging buffers in flight
	PrefetchStages int
}

// NewTilePlan validates p for the given input and shuffle element types
// against the on-chip capacity and returns an immutable copy
func NewTilePlan(p TilePlan, inType, shuffleType DataType) (*TilePlan, error) {
	if err := p.Validate(inType, shuffleType, StagingCapacity); err != nil {
		return nil, err
	}
	plan := p
	return &plan, nil
}

// Waves is the number of compute units in the group
func (p *TilePlan) Waves() int { return p.BlockSize / WaveSize }

// MWaves is the number of waves along M
func (p *TilePlan) MWaves() int { return p.MPerBlock / (p.MXdlPerWave * p.MPerXdl) }

// NWaves is the number of waves along N
func (p *TilePlan) NWaves() int { return p.NPerBlock / (p.NXdlPerWave * p.NPerXdl) }

// MPerShuffle is the M extent of one C-shuffle step
func (p *TilePlan) MPerShuffle() int {
	return p.Shuffle.MXdlPerWavePerShuffle * p.MWaves() * p.MPerXdl
}

// NPerShuffle is the N extent of one C-shuffle step
func (p *TilePlan) NPerShuffle() int {
	return p.Shuffle.NXdlPerWavePerShuffle * p.NWaves() * p.NPerXdl
}

func padRows(t TransferDesc) int {
	if t.LdsAddExtra {
		return 1
	}
	return 0
}

// StagingBytes is the on-chip footprint of one group: the operand ring and
// the C-shuffle tile share the region, so the larger of the two counts
func (p *TilePlan) StagingBytes(inType, shuffleType DataType) int {
	a := p.KPerBlock * (p.MPerBlock + padRows(p.ATransfer))
	b := p.KPerBlock * (p.NPerBlock + padRows(p.BTransfer))
	ring := p.PrefetchStages * (a + b) * inType.Size()
	shuffle := p.MPerShuffle() * p.NPerShuffle() * shuffleType.Size()
	return max(ring, shuffle)
}

// Validate checks every divisibility constraint between plan levels
func (p *TilePlan) Validate(inType, shuffleType DataType, capacity int) error {
	const op = "NewTilePlan"

	for _, f := range []struct {
		name string
		v    int
	}{
		{"BlockSize", p.BlockSize}, {"MPerBlock", p.MPerBlock}, {"NPerBlock", p.NPerBlock},
		{"KPerBlock", p.KPerBlock}, {"AK1", p.AK1}, {"BK1", p.BK1},
		{"MPerXdl", p.MPerXdl}, {"NPerXdl", p.NPerXdl},
		{"MXdlPerWave", p.MXdlPerWave}, {"NXdlPerWave", p.NXdlPerWave},
		{"PrefetchStages", p.PrefetchStages},
	} {
		if f.v <= 0 {
			return NewPlanError(op, "%s must be positive, got %d", f.name, f.v)
		}
	}
	if !inType.Valid() || !shuffleType.Valid() {
		return NewPlanError(op, "invalid element types %v/%v", inType, shuffleType)
	}

	if p.BlockSize > MaxThreadsPerBlock || p.BlockSize%WaveSize != 0 {
		return NewPlanError(op, "block size %d must be a multiple of %d up to %d",
			p.BlockSize, WaveSize, MaxThreadsPerBlock)
	}
	if p.PrefetchStages < MinPrefetchStages {
		return NewPlanError(op, "%d prefetch stages, need at least %d", p.PrefetchStages, MinPrefetchStages)
	}

	// Block -> wave -> xdl subtile
	if p.MPerBlock%(p.MXdlPerWave*p.MPerXdl) != 0 {
		return NewPlanError(op, "MPerBlock %d not divisible by MXdlPerWave*MPerXdl %d",
			p.MPerBlock, p.MXdlPerWave*p.MPerXdl)
	}
	if p.NPerBlock%(p.NXdlPerWave*p.NPerXdl) != 0 {
		return NewPlanError(op, "NPerBlock %d not divisible by NXdlPerWave*NPerXdl %d",
			p.NPerBlock, p.NXdlPerWave*p.NPerXdl)
	}
	if p.MWaves()*p.NWaves() != p.Waves() {
		return NewPlanError(op, "%dx%d waves do not fill a %d-thread group",
			p.MWaves(), p.NWaves(), p.BlockSize)
	}

	// Block -> K1 vector
	if p.KPerBlock%p.AK1 != 0 || p.KPerBlock%p.BK1 != 0 {
		return NewPlanError(op, "KPerBlock %d not divisible by AK1 %d / BK1 %d", p.KPerBlock, p.AK1, p.BK1)
	}

	if err := p.validateTransfer("A", p.ATransfer, p.MPerBlock, p.AK1); err != nil {
		return err
	}
	if err := p.validateTransfer("B", p.BTransfer, p.NPerBlock, p.BK1); err != nil {
		return err
	}
	if err := p.validateShuffle(); err != nil {
		return err
	}

	if need := p.StagingBytes(inType, shuffleType); need > capacity {
		return NewPlanError(op, "needs %d bytes of staging memory, capacity is %d", need, capacity)
	}
	return nil
}

// sliceLengths is the per-thread K0 × MN × K1 slice of a transfer
func (t TransferDesc) sliceLengths(kPerBlock, mnPerBlock, k1 int) [3]int {
	return [3]int{
		kPerBlock / k1 / t.ClusterLengths[0],
		mnPerBlock / t.ClusterLengths[1],
		k1 / t.ClusterLengths[2],
	}
}

func (p *TilePlan) validateTransfer(name string, t TransferDesc, mnPerBlock, k1 int) error {
	const op = "NewTilePlan"
	c := t.ClusterLengths
	if c[0] <= 0 || c[1] <= 0 || c[2] <= 0 {
		return NewPlanError(op, "%s transfer cluster %v has non-positive lengths", name, c)
	}
	if c[0]*c[1]*c[2] != p.BlockSize {
		return NewPlanError(op, "%s transfer cluster %v does not cover %d threads", name, c, p.BlockSize)
	}
	block := [3]int{p.KPerBlock / k1, mnPerBlock, k1}
	for i := range block {
		if block[i]%c[i] != 0 {
			return NewPlanError(op, "%s transfer cluster %v does not divide block slice %v", name, c, block)
		}
	}
	if t.SrcVectorDim != VectorDimMN && t.SrcVectorDim != VectorDimK1 {
		return NewPlanError(op, "%s transfer vector dim %d is neither MN nor K1", name, t.SrcVectorDim)
	}
	if t.SrcScalarPerVector <= 0 || t.DstScalarPerVectorK1 <= 0 {
		return NewPlanError(op, "%s transfer vector widths must be positive", name)
	}
	s := t.sliceLengths(p.KPerBlock, mnPerBlock, k1)
	if s[t.SrcVectorDim]%t.SrcScalarPerVector != 0 {
		return NewPlanError(op, "%s thread slice %v not divisible by source vector %d",
			name, s, t.SrcScalarPerVector)
	}
	if s[2]%t.DstScalarPerVectorK1 != 0 {
		return NewPlanError(op, "%s thread slice %v not divisible by staging vector %d",
			name, s, t.DstScalarPerVectorK1)
	}
	return nil
}

func (p *TilePlan) validateShuffle() error {
	const op = "NewTilePlan"
	s := p.Shuffle
	if s.MXdlPerWavePerShuffle <= 0 || s.NXdlPerWavePerShuffle <= 0 || s.ScalarPerVector <= 0 {
		return NewPlanError(op, "shuffle parameters must be positive")
	}
	if p.MXdlPerWave%s.MXdlPerWavePerShuffle != 0 || p.NXdlPerWave%s.NXdlPerWavePerShuffle != 0 {
		return NewPlanError(op, "shuffle step %dx%d does not divide %dx%d xdl per wave",
			s.MXdlPerWavePerShuffle, s.NXdlPerWavePerShuffle, p.MXdlPerWave, p.NXdlPerWave)
	}
	c := s.ClusterLengths
	if c[0] != 1 || c[2] != 1 || c[1] <= 0 || c[3] <= 0 {
		return NewPlanError(op, "shuffle cluster %v must have the form 1 x CM x 1 x CN", c)
	}
	// A cluster smaller than the block leaves the remaining threads idle
	// during the store
	if c[1]*c[3] > p.BlockSize {
		return NewPlanError(op, "shuffle cluster %v needs %d threads, block has %d", c, c[1]*c[3], p.BlockSize)
	}
	if p.MPerShuffle()%c[1] != 0 || p.NPerShuffle()%c[3] != 0 {
		return NewPlanError(op, "shuffle cluster %v does not divide %dx%d shuffle tile",
			c, p.MPerShuffle(), p.NPerShuffle())
	}
	if (p.NPerShuffle()/c[3])%s.ScalarPerVector != 0 {
		return NewPlanError(op, "shuffle thread slice %d not divisible by vector %d",
			p.NPerShuffle()/c[3], s.ScalarPerVector)
	}
	return nil
}

// String is a compact tile signature such as 256x128x64_32x32_4x2_p2
func (p *TilePlan) String() string {
	return fmt.Sprintf("%dx%dx%d_%dx%d_%dx%d_b%d_p%d",
		p.MPerBlock, p.NPerBlock, p.KPerBlock,
		p.MPerXdl, p.NPerXdl, p.MXdlPerWave, p.NXdlPerWave,
		p.BlockSize, p.PrefetchStages)
}

// Grid returns the number of groups along M and N for an m × n output
func (p *TilePlan) Grid(m, n int) (int, int) {
	return ceilDiv(m, p.MPerBlock), ceilDiv(n, p.NPerBlock)
}
