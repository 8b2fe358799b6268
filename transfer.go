package tilegemm

// transferOperand cooperatively copies one K chunk of an operand into a
// staging slab of K0 × rows × K1 elements. Every thread of the group owns a
// K0 × MN × K1 slice given by its position in the transfer cluster and
// reads it with vector loads along the source vector dimension. Elements
// past the operand (or the K range of this split) are zero-filled, which is
// what makes padded specializations exact.
func transferOperand[T accumulator](
	dst []T,
	src *operandView,
	t TransferDesc,
	blockSize, kPerBlock, k1, mnPerBlock, rows int,
	batch, mnBase, kBase int,
) {
	s := t.sliceLengths(kPerBlock, mnPerBlock, k1)
	alongK := t.SrcVectorDim == VectorDimK1
	vec := t.SrcScalarPerVector
	step1, step2 := vec, 1
	if alongK {
		step1, step2 = 1, vec
	}
	buf := make([]T, vec)

	for tid := 0; tid < blockSize; tid++ {
		// K1 is the fastest varying cluster dimension
		c2 := tid % t.ClusterLengths[2]
		c1 := (tid / t.ClusterLengths[2]) % t.ClusterLengths[1]
		c0 := tid / (t.ClusterLengths[2] * t.ClusterLengths[1])

		for i0 := 0; i0 < s[0]; i0++ {
			kk0 := c0*s[0] + i0
			for i1 := 0; i1 < s[1]; i1 += step1 {
				mn := c1*s[1] + i1
				for i2 := 0; i2 < s[2]; i2 += step2 {
					kk1 := c2*s[2] + i2

					loadVector(buf, src, batch, mnBase+mn, kBase+kk0*k1+kk1, alongK)

					base := (kk0*rows+mn)*k1 + kk1
					for v, x := range buf {
						if alongK {
							dst[base+v] = x
						} else {
							dst[base+v*k1] = x
						}
					}
				}
			}
		}
	}
}
