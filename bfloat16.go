package tilegemm

import (
	"math"
)

// BFloat16 represents a 16-bit brain floating point number
// Format: 1 sign bit, 8 exponent bits, 7 mantissa bits
type BFloat16 uint16

// ToBFloat16 converts float32 to BFloat16, rounding to nearest even
func ToBFloat16(f float32) BFloat16 {
	bits := math.Float32bits(f)

	// Keep NaN quiet; rounding could otherwise carry it into infinity
	if bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0 {
		return BFloat16(bits>>16 | 0x0040)
	}

	// Round to nearest even on the discarded 16 bits
	lsb := (bits >> 16) & 1
	bits += 0x7FFF + lsb

	return BFloat16(bits >> 16)
}

// ToFloat32 converts BFloat16 to float32
func (b BFloat16) ToFloat32() float32 {
	// BFloat16 is the top half of a float32
	return math.Float32frombits(uint32(b) << 16)
}

// Float32 is an alias of ToFloat32 so BFloat16 and float16.Float16 read
// the same at call sites
func (b BFloat16) Float32() float32 {
	return b.ToFloat32()
}
