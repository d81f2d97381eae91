package distance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SSIM constants for data range 1.
const (
	ssimK1 = 0.01
	ssimK2 = 0.03
)

// StructuralSimilarity scores every pair of patches with a Gaussian-windowed
// SSIM and reports 1 - SSIM. Windows slide without padding along each patch
// axis at least as long as the window; shorter axes are not smoothed.
// It is not a metric in the mathematical sense and costs one full SSIM per pair.
type StructuralSimilarity struct {
	Shape  Shape
	Window int
	Sigma  float64

	kernel []float64
}

// NewStructuralSimilarity returns the 3-tap, sigma 1 configuration.
func NewStructuralSimilarity(shape Shape) *StructuralSimilarity {
	s := &StructuralSimilarity{Shape: shape, Window: 3, Sigma: 1}
	s.kernel = gaussian(s.Window, s.Sigma)
	return s
}

// Kind returns KindSSIM.
func (s *StructuralSimilarity) Kind() Kind { return KindSSIM }

// Distance expands every (x, y) pair explicitly.
func (s *StructuralSimilarity) Distance(x, y *mat.Dense) *mat.Dense {
	n1, d := x.Dims()
	n2, dy := y.Dims()
	if d != s.Shape.Len() || dy != d {
		panic(fmt.Sprintf("distance: patch length %d/%d does not match SSIM shape %+v", d, dy, s.Shape))
	}
	if s.kernel == nil {
		s.kernel = gaussian(s.Window, s.Sigma)
	}

	// per-row statistics that do not depend on the pair
	xs := s.moments(x)
	ys := s.moments(y)

	out := mat.NewDense(n1, n2, nil)
	prod := make([]float64, d)
	for i := 0; i < n1; i++ {
		xr := x.RawRowView(i)
		row := out.RawRowView(i)
		for j := 0; j < n2; j++ {
			floats.MulTo(prod, xr, y.RawRowView(j))
			xy, _ := s.smooth(prod)
			row[j] = 1 - ssimFromMoments(xs[i], ys[j], xy)
		}
	}
	return out
}

// Similarity returns the SSIM between two flattened patches.
func (s *StructuralSimilarity) Similarity(a, b []float64) float64 {
	x := mat.NewDense(1, len(a), a)
	y := mat.NewDense(1, len(b), b)
	return 1 - s.Distance(x, y).At(0, 0)
}

type moments struct {
	mu []float64 // smoothed signal
	sq []float64 // smoothed square
}

func (s *StructuralSimilarity) moments(m *mat.Dense) []moments {
	n, d := m.Dims()
	out := make([]moments, n)
	for i := range out {
		r := m.RawRowView(i)
		sq := make([]float64, d)
		floats.MulTo(sq, r, r)
		out[i].mu, _ = s.smooth(r)
		out[i].sq, _ = s.smooth(sq)
	}
	return out
}

func ssimFromMoments(x, y moments, xy []float64) float64 {
	c1 := ssimK1 * ssimK1
	c2 := ssimK2 * ssimK2
	ssimMap := make([]float64, len(xy))
	for k := range ssimMap {
		mx, my := x.mu[k], y.mu[k]
		vx := x.sq[k] - mx*mx
		vy := y.sq[k] - my*my
		cov := xy[k] - mx*my
		cs := (2*cov + c2) / (vx + vy + c2)
		ssimMap[k] = (2*mx*my + c1) / (mx*mx + my*my + c1) * cs
	}
	// every channel has the same extent, so the channel-then-global mean is the plain mean
	return stat.Mean(ssimMap, nil)
}

// smooth applies the separable window along frames, height and width.
func (s *StructuralSimilarity) smooth(src []float64) ([]float64, [4]int) {
	dims := [4]int{s.Shape.Channels, s.Shape.Frames, s.Shape.Height, s.Shape.Width}
	out := src
	for axis := 1; axis < 4; axis++ {
		if dims[axis] < len(s.kernel) {
			continue
		}
		out, dims = convolveAxis(out, dims, axis, s.kernel)
	}
	return out, dims
}

// convolveAxis runs a valid 1-D correlation of k along one axis of a
// row-major 4D block.
func convolveAxis(src []float64, dims [4]int, axis int, k []float64) ([]float64, [4]int) {
	outDims := dims
	outDims[axis] = dims[axis] - len(k) + 1

	inner := 1
	for a := axis + 1; a < 4; a++ {
		inner *= dims[a]
	}
	outer := 1
	for a := 0; a < axis; a++ {
		outer *= dims[a]
	}

	n, m := dims[axis], outDims[axis]
	dst := make([]float64, outer*m*inner)
	for o := 0; o < outer; o++ {
		for p := 0; p < m; p++ {
			for in := 0; in < inner; in++ {
				var acc float64
				for q, w := range k {
					acc += w * src[(o*n+p+q)*inner+in]
				}
				dst[(o*m+p)*inner+in] = acc
			}
		}
	}
	return dst, outDims
}

func gaussian(size int, sigma float64) []float64 {
	g := make([]float64, size)
	half := size / 2
	for i := range g {
		c := float64(i - half)
		g[i] = math.Exp(-c * c / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(g), g)
	return g
}
