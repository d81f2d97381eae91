package train

import (
	"github.com/FlavioCFOliveira/GoPatch/internal/loss"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// Objective scores a candidate signal against a target and returns the
// gradient w.r.t. the candidate. With refresh unset an objective may reuse
// state computed on an earlier call; the trainer always refreshes on the
// first step of a pyramid level.
type Objective interface {
	Evaluate(x, target, mask *volume.Volume, refresh bool) (float64, *volume.Volume, error)
}

// GPNN adapts loss.GPNN. The correspondence is recomputed only on refresh.
type GPNN struct {
	Loss loss.GPNN

	match *loss.Match
}

// NewGPNN wraps g.
func NewGPNN(g loss.GPNN) *GPNN {
	return &GPNN{Loss: g}
}

// Evaluate implements Objective. mask is ignored.
func (o *GPNN) Evaluate(x, target, _ *volume.Volume, refresh bool) (float64, *volume.Volume, error) {
	l, m, err := o.Loss.Forward(x, target, o.match, !refresh && o.match != nil)
	if err != nil {
		return 0, nil, err
	}
	o.match = m
	grad, err := o.Loss.Backward(x, m)
	if err != nil {
		return 0, nil, err
	}
	return l, grad, nil
}

// Match returns the correspondence used by the last evaluation.
func (o *GPNN) Match() *loss.Match {
	return o.match
}

// SWD adapts loss.SWD. It draws new projections on every call.
type SWD struct {
	Loss loss.SWD
}

// Evaluate implements Objective. refresh is ignored.
func (o SWD) Evaluate(x, target, mask *volume.Volume, _ bool) (float64, *volume.Volume, error) {
	return o.Loss.ForwardBackward(x, target, mask)
}

// TruncatedMSE adapts loss.TruncatedMSE.
type TruncatedMSE struct{}

// Evaluate implements Objective.
func (TruncatedMSE) Evaluate(x, target, _ *volume.Volume, _ bool) (float64, *volume.Volume, error) {
	l, err := loss.TruncatedMSE(x, target)
	if err != nil {
		return 0, nil, err
	}
	grad, err := loss.TruncatedMSEGrad(x, target)
	if err != nil {
		return 0, nil, err
	}
	return l, grad, nil
}

// TemporalMean adapts loss.TemporalMean.
type TemporalMean struct{}

// Evaluate implements Objective.
func (TemporalMean) Evaluate(x, target, _ *volume.Volume, _ bool) (float64, *volume.Volume, error) {
	l, err := loss.TemporalMean(x, target)
	if err != nil {
		return 0, nil, err
	}
	grad, err := loss.TemporalMeanGrad(x, target)
	if err != nil {
		return 0, nil, err
	}
	return l, grad, nil
}
