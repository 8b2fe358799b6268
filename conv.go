package tilegemm

import (
	"fmt"
)

// ConvParams defines a grouped 2-D convolution. Tensors are channels-last
// with the group dimension outermost: input GNHWC, weight GKYXC and
// output GNHWK. Channel counts are per group.
type ConvParams struct {
	Groups    int
	BatchSize int

	// Per-group channels
	InChannels  int // C
	OutChannels int // K

	InHeight int
	InWidth  int

	KernelHeight int // Y
	KernelWidth  int // X

	StrideH   int
	StrideW   int
	PadH      int
	PadW      int
	DilationH int
	DilationW int
}

// Validate checks if convolution parameters are valid
func (p *ConvParams) Validate() error {
	if p.Groups <= 0 || p.BatchSize <= 0 {
		return fmt.Errorf("invalid groups/batch %d/%d", p.Groups, p.BatchSize)
	}
	if p.InChannels <= 0 || p.InHeight <= 0 || p.InWidth <= 0 {
		return fmt.Errorf("invalid input dimensions")
	}
	if p.OutChannels <= 0 || p.KernelHeight <= 0 || p.KernelWidth <= 0 {
		return fmt.Errorf("invalid kernel dimensions")
	}
	if p.StrideH <= 0 || p.StrideW <= 0 {
		return fmt.Errorf("invalid stride")
	}
	if p.DilationH <= 0 || p.DilationW <= 0 {
		return fmt.Errorf("invalid dilation")
	}
	if p.PadH < 0 || p.PadW < 0 {
		return fmt.Errorf("invalid padding")
	}
	if p.OutputHeight() <= 0 || p.OutputWidth() <= 0 {
		return fmt.Errorf("filter larger than padded input")
	}
	return nil
}

// OutputHeight computes the output height after convolution
func (p *ConvParams) OutputHeight() int {
	effectiveKH := (p.KernelHeight-1)*p.DilationH + 1
	return (p.InHeight+2*p.PadH-effectiveKH)/p.StrideH + 1
}

// OutputWidth computes the output width after convolution
func (p *ConvParams) OutputWidth() int {
	effectiveKW := (p.KernelWidth-1)*p.DilationW + 1
	return (p.InWidth+2*p.PadW-effectiveKW)/p.StrideW + 1
}

// IsFilter1x1Stride1Pad0 reports whether the convolution is a plain
// per-pixel channel mix
func (p *ConvParams) IsFilter1x1Stride1Pad0() bool {
	return p.KernelHeight == 1 && p.KernelWidth == 1 &&
		p.StrideH == 1 && p.StrideW == 1 &&
		p.PadH == 0 && p.PadW == 0 &&
		p.DilationH == 1 && p.DilationW == 1
}

// InputElements is the element count of the GNHWC input tensor
func (p *ConvParams) InputElements() int {
	return p.Groups * p.BatchSize * p.InHeight * p.InWidth * p.InChannels
}

// OutputElements is the element count of the GNHWK output tensor
func (p *ConvParams) OutputElements() int {
	return p.Groups * p.BatchSize * p.OutputHeight() * p.OutputWidth() * p.OutChannels
}

// WeightElements is the element count of the GKYXC weight tensor
func (p *ConvParams) WeightElements() int {
	return p.Groups * p.OutChannels * p.KernelHeight * p.KernelWidth * p.InChannels
}

// LowerBwdWeight expresses the weight gradient as one GEMM per group:
//
//	dW[g][k][(y,x,c)] = sum over (n,ho,wo) of dOut[g][(n,ho,wo)][k] * In[g][(n,ho,wo)][(y,x,c)]
//
// A is the output gradient, B the input read through an implicit im2col
// view, and C the weight gradient.
func (p *ConvParams) LowerBwdWeight(inType, outType DataType) (*ProblemDescriptor, error) {
	if err := p.Validate(); err != nil {
		return nil, NewDescriptorError("LowerBwdWeight", "%v", err)
	}
	params := *p
	return &ProblemDescriptor{
		Op:     OpGroupedConvBwdWeight,
		M:      p.OutChannels,
		N:      p.KernelHeight * p.KernelWidth * p.InChannels,
		K:      p.BatchSize * p.OutputHeight() * p.OutputWidth(),
		Batch:  p.Groups,
		KBatch: 1,
		A:      OperandDesc{Type: inType, Layout: GNHWK},
		B:      OperandDesc{Type: inType, Layout: GNHWC},
		C:      OperandDesc{Type: outType, Layout: GKYXC},
		Conv:   &params,
	}, nil
}

// im2col maps GEMM coordinates of the lowered backward-weight problem onto
// the GNHWC input without materialising the column matrix. Taps that fall
// into padding read as zero.
type im2col struct {
	c, x        int
	hi, wi      int
	ho, wo      int
	strideH     int
	strideW     int
	padH, padW  int
	dilH, dilW  int
	groupStride int
}

func newIm2col(p *ConvParams) *im2col {
	ho, wo := p.OutputHeight(), p.OutputWidth()
	return &im2col{
		c: p.InChannels, x: p.KernelWidth,
		hi: p.InHeight, wi: p.InWidth,
		ho: ho, wo: wo,
		strideH: p.StrideH, strideW: p.StrideW,
		padH: p.PadH, padW: p.PadW,
		dilH: p.DilationH, dilW: p.DilationW,
		groupStride: p.BatchSize * p.InHeight * p.InWidth * p.InChannels,
	}
}

// locate returns the input offset for filter tap n=(y,x,c) and reduction
// index k=(n,ho,wo) of group g, or false when the tap lands in padding
func (m *im2col) locate(g, n, k int) (int, bool) {
	c := n % m.c
	yx := n / m.c
	x := yx % m.x
	y := yx / m.x

	wo := k % m.wo
	nho := k / m.wo
	ho := nho % m.ho
	b := nho / m.ho

	h := ho*m.strideH - m.padH + y*m.dilH
	w := wo*m.strideW - m.padW + x*m.dilW
	if h < 0 || h >= m.hi || w < 0 || w >= m.wi {
		return 0, false
	}
	return g*m.groupStride + ((b*m.hi+h)*m.wi+w)*m.c + c, true
}
