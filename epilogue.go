package tilegemm

import (
	"fmt"
	"strings"
)

// Epilogue is an elementwise transform applied to each accumulated value
// before it is converted and written to C. Implementations must be pure:
// tiles call Apply concurrently and in no particular order.
type Epilogue interface {
	// Name identifies the variant in logs and instance listings
	Name() string
	// Arity is the number of auxiliary operands Apply consumes
	Arity() int
	// Apply maps the accumulator and Arity auxiliary values to the output
	Apply(acc float64, aux ...float64) float64
}

// PassThrough writes the accumulator unchanged
type PassThrough struct{}

func (PassThrough) Name() string { return "pass_through" }
func (PassThrough) Arity() int { return 0 }
func (PassThrough) Apply(acc float64, _ ...float64) float64 { return acc }

// Scale multiplies the accumulator by Alpha
type Scale struct {
	Alpha float64
}

func (s Scale) Name() string { return fmt.Sprintf("scale(%g)", s.Alpha) }
func (Scale) Arity() int { return 0 }
func (s Scale) Apply(acc float64, _ ...float64) float64 { return s.Alpha * acc }

// BiasAdd adds one auxiliary value, usually a per-column bias
type BiasAdd struct{}

func (BiasAdd) Name() string { return "bias_add" }
func (BiasAdd) Arity() int { return 1 }
func (BiasAdd) Apply(acc float64, aux ...float64) float64 { return acc + aux[0] }

// ReLU clamps negative values to zero
type ReLU struct{}

func (ReLU) Name() string { return "relu" }
func (ReLU) Arity() int { return 0 }
func (ReLU) Apply(acc float64, _ ...float64) float64 {
	if acc < 0 {
		return 0
	}
	return acc
}

// BiasReLU computes max(acc + bias, 0)
type BiasReLU struct{}

func (BiasReLU) Name() string { return "bias_relu" }
func (BiasReLU) Arity() int { return 1 }
func (BiasReLU) Apply(acc float64, aux ...float64) float64 {
	return ReLU{}.Apply(acc + aux[0])
}

// GELU applies the erf form of the Gaussian error linear unit
type GELU struct{}

func (GELU) Name() string { return "gelu" }
func (GELU) Arity() int { return 0 }
func (GELU) Apply(acc float64, _ ...float64) float64 {
	return float64(GeluFloat32(float32(acc)))
}

// Sigmoid applies the logistic function
type Sigmoid struct{}

func (Sigmoid) Name() string { return "sigmoid" }
func (Sigmoid) Arity() int { return 0 }
func (Sigmoid) Apply(acc float64, _ ...float64) float64 {
	return float64(SigmoidFloat32(float32(acc)))
}

// Bilinear computes Alpha*acc + Beta*d where d is an auxiliary tensor,
// the usual C = alpha*A*B + beta*C update
type Bilinear struct {
	Alpha, Beta float64
}

func (b Bilinear) Name() string { return fmt.Sprintf("bilinear(%g,%g)", b.Alpha, b.Beta) }
func (Bilinear) Arity() int { return 1 }
func (b Bilinear) Apply(acc float64, aux ...float64) float64 {
	return b.Alpha*acc + b.Beta*aux[0]
}

// Chain applies epilogues in order. Each stage consumes its own auxiliary
// values, so the chain's arity is the sum of its stages.
type Chain struct {
	stages []Epilogue
	arity  int
}

// NewChain builds a chain from stages. Nil stages are skipped.
func NewChain(stages ...Epilogue) *Chain {
	c := &Chain{stages: make([]Epilogue, 0, len(stages))}
	for _, s := range stages {
		c.Then(s)
	}
	return c
}

// Then appends a stage and returns the chain for further building
func (c *Chain) Then(e Epilogue) *Chain {
	if e == nil {
		return c
	}
	c.stages = append(c.stages, e)
	c.arity += e.Arity()
	return c
}

func (c *Chain) Name() string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

func (c *Chain) Arity() int { return c.arity }

func (c *Chain) Apply(acc float64, aux ...float64) float64 {
	for _, s := range c.stages {
		n := s.Arity()
		acc = s.Apply(acc, aux[:n]...)
		aux = aux[n:]
	}
	return acc
}

// epilogueOrDefault treats a nil epilogue as PassThrough
func epilogueOrDefault(e Epilogue) Epilogue {
	if e == nil {
		return PassThrough{}
	}
	return e
}
