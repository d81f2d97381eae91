package loss

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/project"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// SWD compares the distributions of random 1-D patch projections of two
// volumes. For each projection the projected values of source and target
// are sorted and compared elementwise, a 1-D optimal transport between the
// two empirical distributions.
type SWD struct {
	patch.Geometry
	NumProj int

	// MaskFactor is how many times a target patch touching the mask is
	// repeated in the target distribution. 0 drops those patches.
	MaskFactor int

	// Src seeds the projection bank and the length-matching subsample.
	// nil draws fresh randomness on every call.
	Src rand.Source
}

// NewSWD returns an SWD loss with 7x7x7 dense patches and 256 projections.
func NewSWD() SWD {
	return SWD{
		Geometry: patch.Geometry{Size: 7, TemporalSize: 7, Stride: 1, TemporalStride: 1},
		NumProj:  256,
	}
}

// Forward returns the sliced distance between x and y. mask may be nil; when
// set it has one channel and y's frames, height and width.
func (s SWD) Forward(x, y, mask *volume.Volume) (float64, error) {
	l, _, err := s.compute(x, y, mask, false)
	return l, err
}

// ForwardBackward returns the loss and its gradient w.r.t. x for the same
// random draw.
func (s SWD) ForwardBackward(x, y, mask *volume.Volume) (float64, *volume.Volume, error) {
	return s.compute(x, y, mask, true)
}

func (s SWD) compute(x, y, mask *volume.Volume, withGrad bool) (float64, *volume.Volume, error) {
	if err := x.CheckBatch(); err != nil {
		return 0, nil, err
	}
	if err := y.CheckBatch(); err != nil {
		return 0, nil, err
	}
	if x.Channels != y.Channels {
		return 0, nil, fmt.Errorf("%w: %d vs %d channels", volume.ErrShapeMismatch, x.Channels, y.Channels)
	}
	if s.NumProj <= 0 {
		return 0, nil, fmt.Errorf("loss: SWD needs at least one projection, got %d", s.NumProj)
	}

	rng := s.newRand()
	bank := project.NewBank(s.NumProj, x.Channels, s.Geometry, rng)

	px, err := bank.Project(x.Rescaled())
	if err != nil {
		return 0, nil, fmt.Errorf("source: %w", err)
	}
	py, err := bank.Project(y.Rescaled())
	if err != nil {
		return 0, nil, fmt.Errorf("target: %w", err)
	}

	_, ny := py.Dims()
	yCols := identityIndices(ny)
	if mask != nil {
		if yCols, err = s.maskColumns(mask, y); err != nil {
			return 0, nil, err
		}
		if len(yCols) == 0 {
			return 0, nil, ErrEmptyDistribution
		}
	}

	_, nx := px.Dims()
	xCols, yCols := duplicateIndices(identityIndices(nx), yCols, rng)

	numProj := s.NumProj
	n := len(xCols)
	sortedX := make([]float64, numProj*n)
	sortedY := make([]float64, numProj*n)
	permX := make([]int, numProj*n)
	perm := make([]int, n)
	for p := 0; p < numProj; p++ {
		xs := sortedX[p*n : (p+1)*n]
		ys := sortedY[p*n : (p+1)*n]
		pxRow := px.RawRowView(p)
		pyRow := py.RawRowView(p)
		for k := 0; k < n; k++ {
			xs[k] = pxRow[xCols[k]]
			ys[k] = pyRow[yCols[k]]
		}
		floats.Argsort(xs, perm)
		copy(permX[p*n:(p+1)*n], perm)
		floats.Argsort(ys, perm)
	}

	l1 := L1Loss{}
	loss := l1.Forward(sortedX, sortedY)
	if !withGrad {
		return loss, nil, nil
	}

	step := l1.Backward(sortedX, sortedY)
	gradProj := mat.NewDense(numProj, nx, nil)
	for p := 0; p < numProj; p++ {
		row := gradProj.RawRowView(p)
		for k := 0; k < n; k++ {
			row[xCols[permX[p*n+k]]] += step[p*n+k]
		}
	}
	grad, err := bank.Adjoint(gradProj, x.Frames, x.Height, x.Width)
	if err != nil {
		return 0, nil, err
	}
	// x was rescaled by 2x - 1 before projection
	floats.Scale(2, grad.Data)
	return loss, grad, nil
}

func (s SWD) newRand() *rand.Rand {
	if s.Src != nil {
		return rand.New(s.Src)
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// maskColumns lists the target columns in distribution order: patches clear
// of the mask once, followed by MaskFactor copies of the patches touching it.
func (s SWD) maskColumns(mask, y *volume.Volume) ([]int, error) {
	if mask.Frames != y.Frames || mask.Height != y.Height || mask.Width != y.Width {
		return nil, fmt.Errorf("%w: mask %+v, target %+v", volume.ErrShapeMismatch, mask.Shape(), y.Shape())
	}
	touching, err := patch.Touching(mask, s.Geometry)
	if err != nil {
		return nil, err
	}
	var free, hit []int
	for i, t := range touching {
		if t {
			hit = append(hit, i)
		} else {
			free = append(free, i)
		}
	}
	cols := free
	for r := 0; r < s.MaskFactor; r++ {
		cols = append(cols, hit...)
	}
	return cols, nil
}

// DuplicateToMatchLengths grows the shorter of a and b to the longer length:
// it is tiled floor(long/short) times, then padded with a random subsample,
// without replacement, of the tiled values. Equal lengths are returned as is.
// The results keep the argument order.
func DuplicateToMatchLengths(a, b []float64, rng *rand.Rand) ([]float64, []float64) {
	ia, ib := duplicateIndices(identityIndices(len(a)), identityIndices(len(b)), rng)
	return pick(a, ia), pick(b, ib)
}

// duplicateIndices applies DuplicateToMatchLengths to index lists so callers
// can trace every output sample back to its source.
func duplicateIndices(a, b []int, rng *rand.Rand) ([]int, []int) {
	switch {
	case len(a) == len(b):
		return a, b
	case len(a) < len(b):
		return tileToLength(a, len(b), rng), b
	default:
		return a, tileToLength(b, len(a), rng)
	}
}

func tileToLength(short []int, n int, rng *rand.Rand) []int {
	reps := n / len(short)
	out := make([]int, 0, n)
	for r := 0; r < reps; r++ {
		out = append(out, short...)
	}
	tiled := len(out)
	for _, i := range rng.Perm(tiled)[:n-tiled] {
		out = append(out, out[i])
	}
	return out
}

func identityIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func pick(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
