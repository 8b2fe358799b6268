package tilegemm

// Mathematical constants used by the activation epilogues
const (
	MathLn2      = 0.6931471805599453094 // ln(2)
	MathInvSqrt2 = 0.7071067811865475244 // 1/√2

	// Error function approximation constants (Abramowitz & Stegun)
	// erf(x) ≈ 1 - exp(-x²) * polynomial(x)
	ErfA1 = 0.254829592  // a₁
	ErfA2 = -0.284496736 // a₂
	ErfA3 = 1.421413741  // a₃
	ErfA4 = -1.453152027 // a₄
	ErfA5 = 1.061405429  // a₅
	ErfP  = 0.3275911    // p
)
