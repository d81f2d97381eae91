package opt

import "math"

// Schedule maps an iteration number to a learning rate.
type Schedule interface {
	LearningRate(step int) float64
}

// Constant keeps the learning rate fixed.
type Constant float64

// LearningRate implements Schedule.
func (c Constant) LearningRate(int) float64 { return float64(c) }

// ExponentialDecay scales Initial by Rate once every Steps iterations,
// continuously: Initial * Rate^(step/Steps).
type ExponentialDecay struct {
	Initial float64
	Rate    float64
	Steps   float64
}

// NewExponentialDecay returns the schedule lr * 0.1^(step / (decay*1000)),
// decay being counted in thousands of iterations. decay <= 0 keeps lr fixed.
func NewExponentialDecay(lr float64, decay int) Schedule {
	if decay <= 0 {
		return Constant(lr)
	}
	return ExponentialDecay{Initial: lr, Rate: 0.1, Steps: float64(decay) * 1000}
}

// LearningRate implements Schedule.
func (e ExponentialDecay) LearningRate(step int) float64 {
	return e.Initial * math.Pow(e.Rate, float64(step)/e.Steps)
}

// Apply sets the optimizer's learning rate for step and returns it.
func Apply(o Optimizer, s Schedule, step int) float64 {
	lr := s.LearningRate(step)
	o.SetLearningRate(lr)
	return lr
}
