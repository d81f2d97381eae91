// Package activations maps unconstrained parameters to signal values.
package activations

import (
	"fmt"
	"math"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64

	// Inverse returns a pre-image of y, used to initialise parameters from
	// an existing signal.
	Inverse(y float64) float64
}

// Sigmoid keeps the fitted signal inside (0, 1).
type Sigmoid struct{}

// sigmoid computes the sigmoid function
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// logitClamp keeps Inverse finite at 0 and 1.
const logitClamp = 1e-6

// Inverse computes logit(y), with y clamped to [1e-6, 1-1e-6].
func (s Sigmoid) Inverse(y float64) float64 {
	y = min(max(y, logitClamp), 1-logitClamp)
	return math.Log(y / (1 - y))
}

// Linear is the identity.
type Linear struct{}

// Activate returns x.
func (l Linear) Activate(x float64) float64 { return x }

// Derivative returns 1.
func (l Linear) Derivative(x float64) float64 { return 1 }

// Inverse returns y.
func (l Linear) Inverse(y float64) float64 { return y }

// Parse maps a configuration name to an activation. "none" and "linear" are
// the identity.
func Parse(name string) (Activation, error) {
	switch name {
	case "sigmoid", "":
		return Sigmoid{}, nil
	case "none", "linear":
		return Linear{}, nil
	default:
		return nil, fmt.Errorf("activations: unknown activation %q", name)
	}
}

// ActivateTo writes f(src[i]) into dst.
func ActivateTo(a Activation, dst, src []float64) {
	for i, x := range src {
		dst[i] = a.Activate(x)
	}
}

// ChainTo multiplies upstream gradients by f'(pre) in place.
func ChainTo(a Activation, grad, pre []float64) {
	for i, x := range pre {
		grad[i] *= a.Derivative(x)
	}
}

// InverseTo writes f^-1(src[i]) into dst.
func InverseTo(a Activation, dst, src []float64) {
	for i, y := range src {
		dst[i] = a.Inverse(y)
	}
}
