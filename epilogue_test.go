package tilegemm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpilogueApply(t *testing.T) {
	tests := []struct {
		epi   Epilogue
		acc   float64
		aux   []float64
		want  float64
		arity int
		name  string
	}{
		{PassThrough{}, -3.5, nil, -3.5, 0, "pass_through"},
		{Scale{Alpha: 0.25}, 8, nil, 2, 0, "scale(0.25)"},
		{BiasAdd{}, 5, []float64{-7}, -2, 1, "bias_add"},
		{ReLU{}, -1, nil, 0, 0, "relu"},
		{ReLU{}, 3, nil, 3, 0, "relu"},
		{BiasReLU{}, 5, []float64{-7}, 0, 1, "bias_relu"},
		{BiasReLU{}, 5, []float64{1}, 6, 1, "bias_relu"},
		{Bilinear{Alpha: 2, Beta: -1}, 3, []float64{4}, 2, 1, "bilinear(2,-1)"},
		{Sigmoid{}, 0, nil, 0.5, 0, "sigmoid"},
		{GELU{}, 0, nil, 0, 0, "gelu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.epi.Name())
			assert.Equal(t, tt.arity, tt.epi.Arity())
			assert.InDelta(t, tt.want, tt.epi.Apply(tt.acc, tt.aux...), 1e-6)
		})
	}
}

func TestGELUEpilogueShape(t *testing.T) {
	g := GELU{}
	assert.InDelta(t, 0.8413, g.Apply(1), 1e-3)
	assert.InDelta(t, -0.1587, g.Apply(-1), 1e-3)
	assert.InDelta(t, 10, g.Apply(10), 1e-4)
	assert.False(t, math.IsNaN(g.Apply(-50)))
}

func TestChain(t *testing.T) {
	c := NewChain(Scale{Alpha: 2}, nil, BiasAdd{}, ReLU{}, Bilinear{Alpha: 1, Beta: 10})
	assert.Equal(t, "scale(2)+bias_add+relu+bilinear(1,10)", c.Name())
	assert.Equal(t, 2, c.Arity())

	// Each stage consumes its own aux values in order
	assert.Equal(t, 2*3.0+1+10*0.5, c.Apply(3, 1, 0.5))
	assert.Equal(t, 0+10*0.5, c.Apply(-3, 1, 0.5))

	empty := NewChain()
	assert.Equal(t, 0, empty.Arity())
	assert.Equal(t, 4.0, empty.Apply(4))

	c.Then(Scale{Alpha: -1})
	assert.Equal(t, -(2*3.0 + 1 + 10*0.5), c.Apply(3, 1, 0.5))
}

func TestEpilogueOrDefault(t *testing.T) {
	assert.Equal(t, PassThrough{}, epilogueOrDefault(nil))
	assert.Equal(t, ReLU{}, epilogueOrDefault(ReLU{}))
}
