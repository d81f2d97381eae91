// Package activations provides unit tests for activation functions.
package activations

import (
	"math"
	"testing"
)

// TestSigmoid tests Sigmoid activation.
func TestSigmoid(t *testing.T) {
	sigmoid := Sigmoid{}

	tests := []struct {
		input    float64
		expected float64
	}{
		{0.0, 0.5},
		{1.0, 0.7310585786300049},
		{-1.0, 0.2689414213699951},
		{20.0, 0.9999999979388463},
	}

	for _, tt := range tests {
		output := sigmoid.Activate(tt.input)
		if math.Abs(output-tt.expected) > 1e-12 {
			t.Errorf("Sigmoid(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoidDerivative compares against a central difference.
func TestSigmoidDerivative(t *testing.T) {
	sigmoid := Sigmoid{}
	const h = 1e-6

	for _, x := range []float64{-3, -0.5, 0, 0.7, 4} {
		fd := (sigmoid.Activate(x+h) - sigmoid.Activate(x-h)) / (2 * h)
		if d := sigmoid.Derivative(x); math.Abs(d-fd) > 1e-8 {
			t.Errorf("Sigmoid.Derivative(%v) = %v, want %v", x, d, fd)
		}
	}
}

// TestSigmoidInverse tests logit round trips and clamping.
func TestSigmoidInverse(t *testing.T) {
	sigmoid := Sigmoid{}

	for _, y := range []float64{0.01, 0.3, 0.5, 0.9} {
		if got := sigmoid.Activate(sigmoid.Inverse(y)); math.Abs(got-y) > 1e-12 {
			t.Errorf("Sigmoid(Inverse(%v)) = %v", y, got)
		}
	}
	for _, y := range []float64{0, 1, -2, 3} {
		if x := sigmoid.Inverse(y); math.IsInf(x, 0) || math.IsNaN(x) {
			t.Errorf("Inverse(%v) = %v, want finite", y, x)
		}
	}
}

// TestLinear tests the identity activation.
func TestLinear(t *testing.T) {
	linear := Linear{}
	for _, x := range []float64{-2, 0, 3.5} {
		if linear.Activate(x) != x || linear.Inverse(x) != x || linear.Derivative(x) != 1 {
			t.Errorf("Linear is not the identity at %v", x)
		}
	}
}

// TestParse tests name lookup.
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    Activation
		wantErr bool
	}{
		{"sigmoid", Sigmoid{}, false},
		{"", Sigmoid{}, false},
		{"none", Linear{}, false},
		{"linear", Linear{}, false},
		{"relu", nil, true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %T, want %T", tt.name, got, tt.want)
		}
	}
}

// TestSliceHelpers tests the slice variants.
func TestSliceHelpers(t *testing.T) {
	pre := []float64{-1, 0, 2}
	out := make([]float64, 3)
	ActivateTo(Sigmoid{}, out, pre)

	back := make([]float64, 3)
	InverseTo(Sigmoid{}, back, out)
	for i := range pre {
		if math.Abs(back[i]-pre[i]) > 1e-9 {
			t.Errorf("InverseTo[%d] = %v, want %v", i, back[i], pre[i])
		}
	}

	sigmoid := Sigmoid{}
	grad := []float64{1, 1, 2}
	ChainTo(sigmoid, grad, pre)
	if math.Abs(grad[1]-0.25) > 1e-15 || math.Abs(grad[2]-2*sigmoid.Derivative(2)) > 1e-15 {
		t.Errorf("ChainTo = %v", grad)
	}
}
