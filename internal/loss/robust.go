package loss

import "math"

// robustEpsilon keeps the general form away from its removable singularities.
const robustEpsilon = 1e-6

// RobustLoss is a one-parameter family of penalties on a residual r.
// alpha = 2 is half the squared error, alpha = 0 the Cauchy/Lorentzian
// log1p(0.5 (r/scale)^2); other values interpolate or extrapolate between
// quadratic and heavy-tailed regimes.
func RobustLoss(r, alpha, scale float64) float64 {
	sq := (r / scale) * (r / scale)
	switch alpha {
	case 0:
		return math.Log1p(0.5 * sq)
	case 2:
		return 0.5 * sq
	}
	b, d := robustShape(alpha)
	return (b / d) * (math.Pow(sq/b+1, 0.5*d) - 1)
}

// RobustGrad is dRobustLoss/dr.
func RobustGrad(r, alpha, scale float64) float64 {
	sq := (r / scale) * (r / scale)
	base := r / (scale * scale)
	switch alpha {
	case 0:
		return base / (1 + 0.5*sq)
	case 2:
		return base
	}
	b, d := robustShape(alpha)
	return base * math.Pow(sq/b+1, 0.5*d-1)
}

func robustShape(alpha float64) (b, d float64) {
	b = math.Abs(alpha-2) + robustEpsilon
	if alpha >= 0 {
		d = alpha + robustEpsilon
	} else {
		d = alpha - robustEpsilon
	}
	return b, d
}

// Robust applies RobustLoss to yPred - yTrue and averages.
type Robust struct {
	Alpha float64 // shape: 2 quadratic, 0 Cauchy
	Scale float64 // residual scale
}

// NewRobust creates a robust loss with the given shape and scale.
func NewRobust(alpha, scale float64) *Robust {
	return &Robust{Alpha: alpha, Scale: scale}
}

// Forward computes (1/n) * sum(RobustLoss(y_pred - y_true)).
func (r Robust) Forward(yPred, yTrue []float64) float64 {
	checkLengths("Robust", yPred, yTrue)
	var sum float64
	for i := range yPred {
		sum += RobustLoss(yPred[i]-yTrue[i], r.Alpha, r.Scale)
	}
	return sum / float64(len(yPred))
}

// Backward computes (1/n) * RobustGrad(y_pred - y_true).
func (r Robust) Backward(yPred, yTrue []float64) []float64 {
	grad := make([]float64, len(yPred))
	r.BackwardInPlace(yPred, yTrue, grad)
	return grad
}

// BackwardInPlace computes gradient and stores it in the grad slice.
func (r Robust) BackwardInPlace(yPred, yTrue, grad []float64) {
	checkLengths("Robust", yPred, yTrue, grad)
	inv := 1 / float64(len(yPred))
	for i := range grad {
		grad[i] = RobustGrad(yPred[i]-yTrue[i], r.Alpha, r.Scale) * inv
	}
}
