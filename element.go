package tilegemm

import (
	"math"

	"github.com/x448/float16"
)

// Buffer is a typed operand in main memory. Kernels read elements through
// the contiguous/strided transfer helpers below and write through Set.
type Buffer interface {
	DataType() DataType
	Len() int
	// At returns element i widened to float64
	At(i int) float64
	// Set stores v at i, rounding and saturating to the element type
	Set(i int, v float64)
}

// Concrete buffers. Each is a plain slice so callers can fill and read
// them directly.
type (
	Float32Buffer  []float32
	Float16Buffer  []float16.Float16
	BFloat16Buffer []BFloat16
	Int8Buffer     []int8
	Int32Buffer    []int32
)

func (b Float32Buffer) DataType() DataType { return F32 }
func (b Float32Buffer) Len() int { return len(b) }
func (b Float32Buffer) At(i int) float64 { return float64(b[i]) }
func (b Float32Buffer) Set(i int, v float64) { b[i] = float32(v) }
func (b Float16Buffer) DataType() DataType { return F16 }
func (b Float16Buffer) Len() int { return len(b) }
func (b Float16Buffer) At(i int) float64 { return float64(b[i].Float32()) }
func (b Float16Buffer) Set(i int, v float64) { b[i] = float16.Fromfloat32(float32(v)) }
func (b BFloat16Buffer) DataType() DataType { return BF16 }
func (b BFloat16Buffer) Len() int { return len(b) }
func (b BFloat16Buffer) At(i int) float64 { return float64(b[i].ToFloat32()) }
func (b BFloat16Buffer) Set(i int, v float64) { b[i] = ToBFloat16(float32(v)) }
func (b Int8Buffer) DataType() DataType { return I8 }
func (b Int8Buffer) Len() int { return len(b) }
func (b Int8Buffer) At(i int) float64 { return float64(b[i]) }
func (b Int8Buffer) Set(i int, v float64) { b[i] = int8(saturate(v, math.MinInt8, math.MaxInt8)) }
func (b Int32Buffer) DataType() DataType { return I32 }
func (b Int32Buffer) Len() int { return len(b) }
func (b Int32Buffer) At(i int) float64 { return float64(b[i]) }
func (b Int32Buffer) Set(i int, v float64) { b[i] = int32(saturate(v, math.MinInt32, math.MaxInt32)) }

// saturate rounds half away from zero and clamps into [lo, hi]
func saturate(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewBuffer allocates a zeroed buffer of n elements of type t
func NewBuffer(t DataType, n int) Buffer {
	switch t {
	case F32:
		return make(Float32Buffer, n)
	case F16:
		return make(Float16Buffer, n)
	case BF16:
		return make(BFloat16Buffer, n)
	case I8:
		return make(Int8Buffer, n)
	case I32:
		return make(Int32Buffer, n)
	default:
		return nil
	}
}

// BufferFrom converts values into a new buffer of type t
func BufferFrom(t DataType, values []float64) Buffer {
	buf := NewBuffer(t, len(values))
	if buf == nil {
		return nil
	}
	for i, v := range values {
		buf.Set(i, v)
	}
	return buf
}

// Float64s widens a whole buffer, mostly for tests and verification
func Float64s(buf Buffer) []float64 {
	out := make([]float64, buf.Len())
	for i := range out {
		out[i] = buf.At(i)
	}
	return out
}

// accumulator is the set of on-chip compute types. Float inputs accumulate
// in float32; int8 inputs accumulate exactly in int32.
type accumulator interface {
	float32 | int32
}

// gather copies len(dst) elements starting at offset, step elements apart,
// converting to the compute type. A unit-step float32 read is a plain
// contiguous copy.
func gather[T accumulator](dst []T, buf Buffer, offset, step int) {
	switch b := buf.(type) {
	case Float32Buffer:
		if d, ok := any(dst).([]float32); ok && step == 1 {
			copy(d, b[offset:offset+len(d)])
			return
		}
		for i := range dst {
			dst[i] = T(b[offset+i*step])
		}
	case Float16Buffer:
		for i := range dst {
			dst[i] = T(b[offset+i*step].Float32())
		}
	case BFloat16Buffer:
		for i := range dst {
			dst[i] = T(b[offset+i*step].ToFloat32())
		}
	case Int8Buffer:
		for i := range dst {
			dst[i] = T(b[offset+i*step])
		}
	case Int32Buffer:
		if d, ok := any(dst).([]int32); ok && step == 1 {
			copy(d, b[offset:offset+len(d)])
			return
		}
		for i := range dst {
			dst[i] = T(b[offset+i*step])
		}
	default:
		for i := range dst {
			dst[i] = T(buf.At(offset + i*step))
		}
	}
}

// loadElem reads a single element in the compute type
func loadElem[T accumulator](buf Buffer, i int) T {
	var v [1]T
	gather(v[:], buf, i, 1)
	return v[0]
}
