package distance

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomRows(n, d int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, seed))
	data := make([]float64, n*d)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(n, d, data)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"mse", KindEuclidean, false},
		{"Euclidean", KindEuclidean, false},
		{"ssim", KindSSIM, false},
		{" SSIM ", KindSSIM, false},
		{"cosine", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnknownDistanceFunction))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKindText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("ssim")))
	assert.Equal(t, KindSSIM, k)

	b, err := KindEuclidean.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mse", string(b))

	_, err = Kind(7).MarshalText()
	assert.Error(t, err)
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New(Kind(42), Shape{3, 1, 2, 2})
	assert.True(t, errors.Is(err, ErrUnknownDistanceFunction))
}

func TestEuclideanMatchesBruteForce(t *testing.T) {
	x := randomRows(5, 12, 1)
	y := randomRows(7, 12, 2)

	got := Euclidean{}.Distance(x, y)

	for i := 0; i < 5; i++ {
		for j := 0; j < 7; j++ {
			var sum float64
			for k := 0; k < 12; k++ {
				d := x.At(i, k) - y.At(j, k)
				sum += d * d
			}
			assert.InDelta(t, sum/12, got.At(i, j), 1e-12)
		}
	}
}

func TestEuclideanOnSlices(t *testing.T) {
	x := randomRows(6, 4, 3)
	y := randomRows(6, 4, 4)

	full := Euclidean{}.Distance(x, y)
	part := Euclidean{}.Distance(x.Slice(2, 5, 0, 4).(*mat.Dense), y.Slice(1, 3, 0, 4).(*mat.Dense))

	for i := 0; i < 3; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, full.At(i+2, j+1), part.At(i, j), 1e-12)
		}
	}
}

func TestEuclideanVolumeIndependent(t *testing.T) {
	// same per-element offset gives the same distance whatever the patch length
	for _, d := range []int{3, 27, 147} {
		x := mat.NewDense(1, d, nil)
		y := mat.NewDense(1, d, nil)
		for k := 0; k < d; k++ {
			y.Set(0, k, 0.5)
		}
		assert.InDelta(t, 0.25, Euclidean{}.Distance(x, y).At(0, 0), 1e-12)
	}
}

func TestSSIMIdenticalIsZero(t *testing.T) {
	shape := Shape{Channels: 3, Frames: 3, Height: 4, Width: 4}
	x := randomRows(4, shape.Len(), 5)

	m, err := New(KindSSIM, shape)
	require.NoError(t, err)
	dist := m.Distance(x, x)

	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0, dist.At(i, i), 1e-9)
		for j := 0; j < 4; j++ {
			assert.GreaterOrEqual(t, dist.At(i, j), dist.At(i, i)-1e-12)
		}
	}
}

func TestSSIMSymmetricAndBounded(t *testing.T) {
	shape := Shape{Channels: 3, Frames: 2, Height: 3, Width: 3}
	x := randomRows(3, shape.Len(), 6)
	y := randomRows(4, shape.Len(), 7)

	s := NewStructuralSimilarity(shape)
	xy := s.Distance(x, y)
	yx := s.Distance(y, x)
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, xy.At(i, j), yx.At(j, i), 1e-12)
			assert.GreaterOrEqual(t, xy.At(i, j), 0.0)
			assert.LessOrEqual(t, xy.At(i, j), 2.0)
		}
	}
}

func TestSSIMWithoutSmoothing(t *testing.T) {
	// every axis shorter than the window: SSIM reduces to per-pixel terms
	shape := Shape{Channels: 1, Frames: 1, Height: 2, Width: 2}
	s := NewStructuralSimilarity(shape)

	a := []float64{0.2, 0.4, 0.6, 0.8}
	b := []float64{0.2, 0.4, 0.6, 0.8}
	assert.InDelta(t, 1, s.Similarity(a, b), 1e-12)

	c := []float64{0, 0, 0, 0}
	c1 := ssimK1 * ssimK1
	var want float64
	for _, v := range a {
		want += c1 / (v*v + c1)
	}
	assert.InDelta(t, want/4, s.Similarity(a, c), 1e-12)
}

func TestGaussianKernel(t *testing.T) {
	g := gaussian(3, 1)
	e := math.Exp(-0.5)
	assert.InDeltaSlice(t, []float64{e / (1 + 2*e), 1 / (1 + 2*e), e / (1 + 2*e)}, g, 1e-12)
}

func BenchmarkEuclidean(b *testing.B) {
	x := randomRows(256, 3*5*5*5, 1)
	y := randomRows(256, 3*5*5*5, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Euclidean{}.Distance(x, y)
	}
}

func BenchmarkSSIM(b *testing.B) {
	shape := Shape{Channels: 3, Frames: 3, Height: 3, Width: 3}
	x := randomRows(32, shape.Len(), 1)
	y := randomRows(32, shape.Len(), 2)
	s := NewStructuralSimilarity(shape)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Distance(x, y)
	}
}
