package tilegemm

// Reference contains simple, correct implementations of the contractions.
// They read operands with plain index arithmetic, accumulate in float64 and
// are used to verify launches.
type Reference struct{}

// Contract computes the expected output of d over ops in logical
// [batch][m][n] order, with the epilogue applied and no output rounding
func (r Reference) Contract(d *ProblemDescriptor, ops Operands) []float64 {
	var out []float64
	if d.Op == OpGroupedConvBwdWeight {
		out = r.ConvBwdWeight(d.Conv, ops.A, ops.B)
	} else {
		out = r.GEMM(d, ops.A, ops.B)
	}

	epi := epilogueOrDefault(d.Epilogue)
	aux := make([]float64, len(d.Aux))
	for b := 0; b < d.Batch; b++ {
		for m := 0; m < d.M; m++ {
			for n := 0; n < d.N; n++ {
				for i := range d.Aux {
					aux[i] = r.auxAt(d, i, ops.Aux[i], b, m, n)
				}
				idx := (b*d.M+m)*d.N + n
				out[idx] = epi.Apply(out[idx], aux...)
			}
		}
	}
	return out
}

// GEMM computes sum_k A[b][m][k] * B[b][k][n] for every batch
func (r Reference) GEMM(d *ProblemDescriptor, a, b Buffer) []float64 {
	ops := d.gemmOperands()
	out := make([]float64, d.Batch*d.M*d.N)
	for batch := 0; batch < d.Batch; batch++ {
		for m := 0; m < d.M; m++ {
			for n := 0; n < d.N; n++ {
				var sum float64
				for k := 0; k < d.K; k++ {
					sum += a.At(matrixOffset(ops[0], batch, m, k)) * b.At(matrixOffset(ops[1], batch, k, n))
				}
				out[(batch*d.M+m)*d.N+n] = sum
			}
		}
	}
	return out
}

// ConvBwdWeight computes the weight gradient of a grouped convolution
// directly from its definition. Result order is GKYXC.
func (r Reference) ConvBwdWeight(p *ConvParams, dOut, in Buffer) []float64 {
	ho, wo := p.OutputHeight(), p.OutputWidth()
	out := make([]float64, p.WeightElements())
	for g := 0; g < p.Groups; g++ {
		for k := 0; k < p.OutChannels; k++ {
			for y := 0; y < p.KernelHeight; y++ {
				for x := 0; x < p.KernelWidth; x++ {
					for c := 0; c < p.InChannels; c++ {
						var sum float64
						for n := 0; n < p.BatchSize; n++ {
							for oh := 0; oh < ho; oh++ {
								h := oh*p.StrideH - p.PadH + y*p.DilationH
								if h < 0 || h >= p.InHeight {
									continue
								}
								for ow := 0; ow < wo; ow++ {
									w := ow*p.StrideW - p.PadW + x*p.DilationW
									if w < 0 || w >= p.InWidth {
										continue
									}
									og := (((g*p.BatchSize+n)*ho+oh)*wo+ow)*p.OutChannels + k
									ig := (((g*p.BatchSize+n)*p.InHeight+h)*p.InWidth+w)*p.InChannels + c
									sum += dOut.At(og) * in.At(ig)
								}
							}
						}
						out[(((g*p.OutChannels+k)*p.KernelHeight+y)*p.KernelWidth+x)*p.InChannels+c] = sum
					}
				}
			}
		}
	}
	return out
}

// Output reads a launch result from c into logical [batch][m][n] order
func (r Reference) Output(d *ProblemDescriptor, c Buffer) []float64 {
	out := make([]float64, d.Batch*d.M*d.N)
	if d.Op == OpGroupedConvBwdWeight {
		for i := range out {
			out[i] = c.At(i)
		}
		return out
	}
	oc := d.gemmOperands()[2]
	for b := 0; b < d.Batch; b++ {
		for m := 0; m < d.M; m++ {
			for n := 0; n < d.N; n++ {
				out[(b*d.M+m)*d.N+n] = c.At(matrixOffset(oc, b, m, n))
			}
		}
	}
	return out
}

// Round passes values through element type t, as storing them would
func (r Reference) Round(t DataType, v []float64) []float64 {
	return Float64s(BufferFrom(t, v))
}

func (r Reference) auxAt(d *ProblemDescriptor, i int, buf Buffer, b, m, n int) float64 {
	a := d.Aux[i]
	switch a.Broadcast {
	case AuxPerColumn:
		bs := a.BatchStride
		if bs == 0 {
			bs = d.N
		}
		return buf.At(b*bs + n)
	case AuxPerRow:
		bs := a.BatchStride
		if bs == 0 {
			bs = d.M
		}
		return buf.At(b*bs + m)
	default:
		ld := a.Stride
		if ld == 0 {
			ld = d.N
		}
		bs := a.BatchStride
		if bs == 0 {
			bs = (d.M-1)*ld + d.N
		}
		return buf.At(b*bs + m*ld + n)
	}
}

// matrixOffset addresses element (row, col) of a resolved GEMM operand
func matrixOffset(o gemmOperand, batch, row, col int) int {
	if o.desc.Layout == ColMajor {
		return batch*o.batchStride + col*o.ld + row
	}
	return batch*o.batchStride + row*o.ld + col
}
