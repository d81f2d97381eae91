// Package loss provides unit tests for loss functions.
package loss

import (
	"math"
	"testing"
)

// TestMSEForward tests MSE forward pass.
func TestMSEForward(t *testing.T) {
	mse := MSE{}

	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Perfect prediction", []float64{1.0, 2.0, 3.0}, []float64{1.0, 2.0, 3.0}, 0.0},
		{"Single error", []float64{1.0, 2.0}, []float64{1.5, 2.0}, 0.125},
		{"Multiple errors", []float64{1.0, 2.0, 3.0}, []float64{0.0, 1.0, 2.0}, 1.0},
		{"Large errors", []float64{10.0}, []float64{0.0}, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mse.Forward(tt.yPred, tt.yTrue)
			if math.Abs(result-tt.expected) > 1e-12 {
				t.Errorf("MSE.Forward() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestMSEForwardLengthMismatch tests error handling.
func TestMSEForwardLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for length mismatch")
		}
	}()

	MSE{}.Forward([]float64{1.0, 2.0}, []float64{1.0})
}

// TestMSEBackwardInPlace tests in-place gradient computation.
func TestMSEBackwardInPlace(t *testing.T) {
	yPred := []float64{1.0, 2.0, 3.0}
	yTrue := []float64{0.0, 2.0, 4.0}
	grad := make([]float64, 3)

	MSE{}.BackwardInPlace(yPred, yTrue, grad)

	// Expected: 2*(p-y)/n = 2*[1, 0, -1]/3
	expected := []float64{2.0 / 3.0, 0.0, -2.0 / 3.0}
	for i := range grad {
		if math.Abs(grad[i]-expected[i]) > 1e-12 {
			t.Errorf("grad[%d] = %v, want %v", i, grad[i], expected[i])
		}
	}
}

// TestL1Loss tests mean absolute error and its subgradient.
func TestL1Loss(t *testing.T) {
	l1 := L1Loss{}
	yPred := []float64{1.0, -2.0, 3.0, 0.5}
	yTrue := []float64{0.0, 2.0, 3.0, 1.0}

	if got := l1.Forward(yPred, yTrue); math.Abs(got-(1+4+0+0.5)/4) > 1e-12 {
		t.Errorf("L1Loss.Forward() = %v, want %v", got, 5.5/4)
	}

	expected := []float64{0.25, -0.25, 0, -0.25}
	grad := l1.Backward(yPred, yTrue)
	for i := range grad {
		if grad[i] != expected[i] {
			t.Errorf("grad[%d] = %v, want %v", i, grad[i], expected[i])
		}
	}
}

// TestL1LossBackwardLengthMismatch tests in-place gradient error handling.
func TestL1LossBackwardLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for length mismatch")
		}
	}()

	L1Loss{}.BackwardInPlace([]float64{1.0}, []float64{1.0}, []float64{1.0, 2.0})
}

// TestLossInterface checks the flat losses satisfy both interfaces.
func TestLossInterface(t *testing.T) {
	losses := []Loss{MSE{}, L1Loss{}, Robust{Alpha: 1, Scale: 0.5}}
	for _, l := range losses {
		if _, ok := l.(BackwardInPlacer); !ok {
			t.Errorf("%T does not implement BackwardInPlacer", l)
		}
	}
}
