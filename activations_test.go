package tilegemm

import (
	"math"
	"testing"
)

func TestSigmoidAccuracy(t *testing.T) {
	testCases := []struct {
		input    float32
		expected float64
		tol      float64
	}{
		{0.0, 0.5, 1e-6},
		{1.0, 0.7310585786300049, 1e-4},
		{-1.0, 0.2689414213699951, 1e-4},
		{2.0, 0.8807970779778823, 1e-4},
		{-5.0, 0.006692850924284856, 1e-4},
		{12.0, 1, 1e-4},
		{-12.0, 0, 1e-4},
	}

	for _, tc := range testCases {
		result := SigmoidFloat32(tc.input)
		if diff := math.Abs(float64(result) - tc.expected); diff > tc.tol {
			t.Errorf("SigmoidFloat32(%f): expected %f, got %f (error: %e)",
				tc.input, tc.expected, result, diff)
		}
	}
}

func TestExpFloat32Accuracy(t *testing.T) {
	testCases := []float32{0, 1, 2, 5, 10, 20, -1, -2, -5, -10, -20}

	for _, x := range testCases {
		result := ExpFloat32(x)
		expected := math.Exp(float64(x))
		relError := math.Abs(float64(result)-expected) / expected
		if relError > 1e-3 {
			t.Errorf("ExpFloat32(%f): expected %g, got %g (rel error: %e)",
				x, expected, result, relError)
		}
	}

	if got := ExpFloat32(100); got != math.MaxFloat32 {
		t.Errorf("ExpFloat32(100): expected MaxFloat32, got %g", got)
	}
	if got := ExpFloat32(-100); got != 0 {
		t.Errorf("ExpFloat32(-100): expected 0, got %g", got)
	}
}

func TestGELUAccuracy(t *testing.T) {
	testCases := []struct {
		input    float32
		expected float64
	}{
		{0.0, 0.0},
		{1.0, 0.8413447460685429},
		{-1.0, -0.15865525393145705},
		{0.5, 0.34571221824490996},
		{2.0, 1.9545977256749598},
		{-2.0, -0.04540227432504002},
	}

	for _, tc := range testCases {
		result := GeluFloat32(tc.input)
		if diff := math.Abs(float64(result) - tc.expected); diff > 1e-3 {
			t.Errorf("GeluFloat32(%f): expected %f, got %f", tc.input, tc.expected, result)
		}
	}
}
