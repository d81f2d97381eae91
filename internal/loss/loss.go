// Package loss provides the patch losses and the flat losses they build on.
package loss

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrNoCachedMatch is returned when the same-input fast path is requested
// before any match exists.
var ErrNoCachedMatch = errors.New("loss: same-input requested without a previous match")

// ErrSiteMismatch is returned when per-site matching is requested for
// volumes whose spatial patch grids differ.
var ErrSiteMismatch = errors.New("loss: spatial patch grids differ")

// ErrEmptyDistribution is returned when masking leaves no target samples.
var ErrEmptyDistribution = errors.New("loss: empty target distribution")

// BackwardInPlacer is an optional interface for loss functions that support
// in-place gradient computation to avoid allocations.
type BackwardInPlacer interface {
	BackwardInPlace(yPred, yTrue, grad []float64)
}

// Loss is a loss function over flat slices with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the loss w.r.t. prediction.
	// This creates a new slice and should be avoided in hot loops.
	Backward(yPred, yTrue []float64) []float64
}

func checkLengths(name string, slices ...[]float64) {
	for _, s := range slices[1:] {
		if len(s) != len(slices[0]) {
			panic(name + ": slices must have same length")
		}
	}
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean squared error: (1/n) * sum((y_pred - y_true)^2)
func (m MSE) Forward(yPred, yTrue []float64) float64 {
	checkLengths("MSE", yPred, yTrue)
	d := floats.Distance(yPred, yTrue, 2)
	return d * d / float64(len(yPred))
}

// Backward computes gradient: dL/dy_pred = (2/n) * (y_pred - y_true)
func (m MSE) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	m.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient and stores it in the grad slice.
func (m MSE) BackwardInPlace(yPred, yTrue, grad []float64) {
	checkLengths("MSE", yPred, yTrue, grad)
	floats.SubTo(grad, yPred, yTrue)
	floats.Scale(2/float64(len(yPred)), grad)
}

// L1Loss (Mean Absolute Error) loss.
type L1Loss struct{}

// Forward computes mean absolute error: (1/n) * sum(|y_pred - y_true|)
func (l L1Loss) Forward(yPred, yTrue []float64) float64 {
	checkLengths("L1Loss", yPred, yTrue)
	return floats.Distance(yPred, yTrue, 1) / float64(len(yPred))
}

// Backward computes gradient for L1 loss: dL/dy_pred = (1/n) * sign(y_pred - y_true)
func (l L1Loss) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	l.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient and stores it in the grad slice.
func (l L1Loss) BackwardInPlace(yPred, yTrue, grad []float64) {
	checkLengths("L1Loss", yPred, yTrue, grad)
	factor := 1.0 / float64(len(yPred))
	for i := range grad {
		diff := yPred[i] - yTrue[i]
		switch {
		case diff > 0:
			grad[i] = factor
		case diff < 0:
			grad[i] = -factor
		default:
			grad[i] = 0
		}
	}
}
