// Package distance provides pairwise dissimilarity matrices between patch sets.
//
// Every metric is normalized so that patch sets of different sizes are
// comparable under the same matching threshold: smaller means more similar.
package distance

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownDistanceFunction is returned when a metric name is not one of
// the enumerated kinds.
var ErrUnknownDistanceFunction = errors.New("distance: unknown distance function")

// Metric computes an n1 x n2 dissimilarity matrix between the rows of x and y.
type Metric interface {
	Distance(x, y *mat.Dense) *mat.Dense
	Kind() Kind
}

// Kind enumerates the available metrics.
type Kind int

const (
	// KindEuclidean is the normalized squared Euclidean distance.
	KindEuclidean Kind = iota
	// KindSSIM is one minus the windowed structural similarity.
	KindSSIM
)

func (k Kind) String() string {
	switch k {
	case KindEuclidean:
		return "mse"
	case KindSSIM:
		return "ssim"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mse", "euclidean", "l2":
		return KindEuclidean, nil
	case "ssim":
		return KindSSIM, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDistanceFunction, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindEuclidean, KindSSIM:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDistanceFunction, int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Shape is the unflattened layout of one patch row.
type Shape struct {
	Channels, Frames, Height, Width int
}

// Len returns the flattened patch length.
func (s Shape) Len() int {
	return s.Channels * s.Frames * s.Height * s.Width
}

// New builds the metric selected by kind for patches of the given shape.
func New(kind Kind, shape Shape) (Metric, error) {
	switch kind {
	case KindEuclidean:
		return Euclidean{}, nil
	case KindSSIM:
		return NewStructuralSimilarity(shape), nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownDistanceFunction, kind)
	}
}

// Euclidean is |x|² + |y|² - 2x·y divided by the patch length.
type Euclidean struct{}

// Kind returns KindEuclidean.
func (Euclidean) Kind() Kind { return KindEuclidean }

// Distance computes the full n1 x n2 matrix with one matrix product.
func (Euclidean) Distance(x, y *mat.Dense) *mat.Dense {
	n1, d := x.Dims()
	n2, dy := y.Dims()
	if d != dy {
		panic(fmt.Sprintf("distance: patch length mismatch %d != %d", d, dy))
	}

	xx := rowNorms(x)
	yy := rowNorms(y)

	out := mat.NewDense(n1, n2, nil)
	out.Mul(x, y.T())
	inv := 1 / float64(d)
	for i := 0; i < n1; i++ {
		row := out.RawRowView(i)
		for j := range row {
			// rounding can push exact matches slightly below zero
			row[j] = max(0, (xx[i]+yy[j]-2*row[j])*inv)
		}
	}
	return out
}

func rowNorms(m *mat.Dense) []float64 {
	n, _ := m.Dims()
	out := make([]float64, n)
	for i := range out {
		r := m.RawRowView(i)
		out[i] = floats.Dot(r, r)
	}
	return out
}
