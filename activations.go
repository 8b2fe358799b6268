package tilegemm

import "math"

// Activation function implementations used by the epilogues. They work in
// float32 so an epilogue sees the same rounding as the accumulator.

// SigmoidFloat32 computes sigmoid(x) = 1 / (1 + exp(-x))
func SigmoidFloat32(x float32) float32 {
	// For large |x|, sigmoid saturates
	if x < -ActivationSaturation {
		return 0
	}
	if x > ActivationSaturation {
		return 1
	}

	if x >= 0 {
		expNegX := ExpFloat32(-x)
		return 1.0 / (1.0 + expNegX)
	}
	expX := ExpFloat32(x)
	return expX / (1.0 + expX)
}

// ExpFloat32 computes exp(x) with good accuracy for float32
// Uses range reduction and polynomial approximation
func ExpFloat32(x float32) float32 {
	if x > 88.7 { // exp(88.7) ≈ max float32
		return math.MaxFloat32
	}
	if x < -87.3 {
		return 0
	}

	// Range reduction: exp(x) = 2^k * exp(r) where x = k*ln(2) + r
	k := int(math.Floor(float64(x) / MathLn2))
	r := x - float32(k)*float32(MathLn2)

	r2 := r * r
	r3 := r2 * r
	r4 := r2 * r2
	r5 := r4 * r

	expR := 1.0 + r +
		0.4999999701976776*r2 +
		0.1666666567325592*r3 +
		0.0416666679084301*r4 +
		0.0083333337679505*r5

	return float32(math.Ldexp(float64(expR), k))
}

// GeluFloat32 computes GELU(x) = x * 0.5 * (1 + erf(x/√2))
func GeluFloat32(x float32) float32 {
	return x * 0.5 * (1 + ErfFloat32(x*MathInvSqrt2))
}

// ErfFloat32 computes the error function
// Uses rational approximation from Abramowitz & Stegun
func ErfFloat32(x float32) float32 {
	sign := float32(1)
	if x < 0 {
		sign = -1
		x = -x
	}

	t := 1 / (1 + ErfP*x)
	t2 := t * t
	t3 := t2 * t
	t4 := t2 * t2
	t5 := t4 * t

	expNegX2 := ExpFloat32(-x * x)
	polynomial := ErfA1*t + ErfA2*t2 + ErfA3*t3 + ErfA4*t4 + ErfA5*t5

	return sign * (1 - expNegX2*polynomial)
}
