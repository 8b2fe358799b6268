package tilegemm

// GenerateFloat64 generates deterministic data in [0, 1) using a linear
// congruential generator (LCG). This ensures reproducible tests across runs.
func GenerateFloat64(size int, seed uint64) []float64 {
	data := make([]float64, size)
	rng := seed
	for i := range data {
		rng = rng*1103515245 + 12345 // LCG parameters from Numerical Recipes
		data[i] = float64(uint32(rng>>16)) / float64(1<<32)
	}
	return data
}

// GenerateRange generates deterministic data in [min, max)
func GenerateRange(size int, seed uint64, min, max float64) []float64 {
	data := GenerateFloat64(size, seed)
	for i := range data {
		data[i] = data[i]*(max-min) + min
	}
	return data
}

// GenerateIntegers generates deterministic integer values in [min, max].
// Products and sums of small integers are exact in every supported element
// and accumulation type, so results can be compared without tolerance.
func GenerateIntegers(size int, seed uint64, min, max int) []float64 {
	data := GenerateFloat64(size, seed)
	span := float64(max - min + 1)
	for i := range data {
		data[i] = float64(min + int(data[i]*span))
	}
	return data
}

// Fill is the value sentinel-filled outputs start with
const Fill = -77

// NewOperands allocates packed operands for d. A and B hold integers in
// [min, max], aux operands small integers, and C is filled with Fill so
// stray writes show up.
func NewOperands(d *ProblemDescriptor, seed uint64, min, max int) Operands {
	na, nb, nc := d.Footprint()
	ops := Operands{
		A: BufferFrom(d.A.Type, GenerateIntegers(na, seed, min, max)),
		B: BufferFrom(d.B.Type, GenerateIntegers(nb, seed+1, min, max)),
		C: BufferFrom(d.C.Type, GenerateSequence(nc, Fill, 0)),
	}
	for i, a := range d.Aux {
		ops.Aux = append(ops.Aux, BufferFrom(a.Type, GenerateIntegers(d.AuxFootprint(i), seed+2+uint64(i), -3, 3)))
	}
	return ops
}

// GenerateSequence generates start, start+step, ...
func GenerateSequence(size int, start, step float64) []float64 {
	data := make([]float64, size)
	for i := range data {
		data[i] = start + float64(i)*step
	}
	return data
}

// TestMatrixSizes returns M, N, K triples that exercise full tiles, partial
// tiles and a reduction that is not a whole number of chunks
func TestMatrixSizes() [][3]int {
	return [][3]int{
		{32, 32, 32},
		{64, 64, 64},
		{128, 128, 64},
		{96, 160, 96},
		{100, 100, 64},
		{33, 65, 97},
	}
}
