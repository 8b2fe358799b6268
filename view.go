package tilegemm

// operandView addresses an input operand as a per-batch MN × K matrix,
// the orientation the staging buffers use for both A (M × K) and B (N × K).
// Affine views compute offsets from strides; the conv input is read through
// an implicit im2col mapping instead.
type operandView struct {
	buf         Buffer
	mn, k       int
	mnStride    int
	kStride     int
	batchStride int
	conv        *im2col
}

// locate returns the buffer offset of (batch, mn, k), or false when the
// element lies outside the logical operand or in convolution padding
func (v *operandView) locate(batch, mn, k int) (int, bool) {
	if mn < 0 || mn >= v.mn || k < 0 || k >= v.k {
		return 0, false
	}
	if v.conv != nil {
		return v.conv.locate(batch, mn, k)
	}
	return batch*v.batchStride + mn*v.mnStride + k*v.kStride, true
}

// loadVector reads len(dst) consecutive elements starting at (mn, k),
// walking K when alongK is set and MN otherwise. Elements outside the
// operand read as zero.
func loadVector[T accumulator](dst []T, v *operandView, batch, mn, k int, alongK bool) {
	n := len(dst)
	lastMN, lastK := mn, k
	step := v.mnStride
	if alongK {
		lastK += n - 1
		step = v.kStride
	} else {
		lastMN += n - 1
	}

	if v.conv == nil && mn >= 0 && k >= 0 && lastMN < v.mn && lastK < v.k {
		gather(dst, v.buf, batch*v.batchStride+mn*v.mnStride+k*v.kStride, step)
		return
	}

	for i := range dst {
		off, ok := v.locate(batch, mn, k)
		if ok {
			dst[i] = loadElem[T](v.buf, off)
		} else {
			dst[i] = 0
		}
		if alongK {
			k++
		} else {
			mn++
		}
	}
}

// outputView addresses C (and split-K partials) as a per-batch M × N matrix
type outputView struct {
	buf         Buffer
	m, n        int
	rowStride   int
	colStride   int
	batchStride int
}

func (v *outputView) offset(batch, m, n int) int {
	return batch*v.batchStride + m*v.rowStride + n*v.colStride
}

// auxView reads one auxiliary epilogue operand by output coordinate
type auxView struct {
	buf         Buffer
	rowStride   int
	colStride   int
	batchStride int
}

// span is the per-batch element extent for an m × n output
func (v auxView) span(m, n int) int {
	return (m-1)*v.rowStride + (n-1)*v.colStride + 1
}

func (v auxView) at(batch, m, n int) float64 {
	return v.buf.At(batch*v.batchStride + m*v.rowStride + n*v.colStride)
}

func (d *ProblemDescriptor) auxView(i int, buf Buffer) auxView {
	a := d.Aux[i]
	v := auxView{buf: buf}
	switch a.Broadcast {
	case AuxPerColumn:
		v.colStride = 1
	case AuxPerRow:
		v.rowStride = 1
	default:
		v.rowStride = a.Stride
		if v.rowStride == 0 {
			v.rowStride = d.N
		}
		v.colStride = 1
	}
	v.batchStride = a.BatchStride
	if v.batchStride == 0 {
		v.batchStride = v.span(d.M, d.N)
	}
	return v
}

// operandViews binds buffers to the problem's A, B and C views
func (d *ProblemDescriptor) operandViews(a, b, c Buffer) (av, bv *operandView, cv *outputView) {
	if d.Op == OpGroupedConvBwdWeight {
		p := d.Conv
		ho, wo := p.OutputHeight(), p.OutputWidth()
		yxc := d.N
		av = &operandView{
			buf: a, mn: d.M, k: d.K,
			mnStride: 1, kStride: p.OutChannels,
			batchStride: p.BatchSize * ho * wo * p.OutChannels,
		}
		bv = &operandView{buf: b, mn: d.N, k: d.K, conv: newIm2col(p)}
		cv = &outputView{
			buf: c, m: d.M, n: d.N,
			rowStride: yxc, colStride: 1,
			batchStride: p.OutChannels * yxc,
		}
		return av, bv, cv
	}

	ops := d.gemmOperands()
	oa, ob, oc := ops[0], ops[1], ops[2]

	// A is M × K: row major walks K contiguously
	av = &operandView{buf: a, mn: d.M, k: d.K, batchStride: oa.batchStride}
	if oa.desc.Layout == RowMajor {
		av.mnStride, av.kStride = oa.ld, 1
	} else {
		av.mnStride, av.kStride = 1, oa.ld
	}

	// B is K × N: row major walks N contiguously
	bv = &operandView{buf: b, mn: d.N, k: d.K, batchStride: ob.batchStride}
	if ob.desc.Layout == RowMajor {
		bv.mnStride, bv.kStride = 1, ob.ld
	} else {
		bv.mnStride, bv.kStride = ob.ld, 1
	}

	cv = &outputView{buf: c, m: d.M, n: d.N, batchStride: oc.batchStride}
	if oc.desc.Layout == RowMajor {
		cv.rowStride, cv.colStride = oc.ld, 1
	} else {
		cv.rowStride, cv.colStride = 1, oc.ld
	}
	return av, bv, cv
}

// contiguousAlongK reports which logical dimension of an input operand has
// unit stride: true for K, false for MN. Conv operands are channels-last, so
// the output gradient is contiguous along M (K_out) and the input along N (C).
func contiguousAlongK(layout Layout, isA bool) bool {
	switch layout {
	case RowMajor:
		return isA
	case ColMajor:
		return !isA
	default:
		return false
	}
}
