// Package loss provides benchmarks for loss functions.
package loss

import (
	"math/rand/v2"
	"testing"

	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// fillRandom fills a slice with random values.
func fillRandom(slice []float64) {
	for i := range slice {
		slice[i] = rand.Float64()
	}
}

// BenchmarkMSEForward benchmarks MSE loss forward pass.
func BenchmarkMSEForward(b *testing.B) {
	mse := MSE{}
	yPred := make([]float64, 1000)
	yTrue := make([]float64, 1000)
	fillRandom(yPred)
	fillRandom(yTrue)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mse.Forward(yPred, yTrue)
	}
}

// BenchmarkRobustBackwardInPlace benchmarks the robust penalty gradient.
func BenchmarkRobustBackwardInPlace(b *testing.B) {
	r := Robust{Alpha: 0, Scale: 0.2}
	yPred := make([]float64, 1000)
	yTrue := make([]float64, 1000)
	grad := make([]float64, 1000)
	fillRandom(yPred)
	fillRandom(yTrue)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.BackwardInPlace(yPred, yTrue, grad)
	}
}

// BenchmarkGPNNMatch benchmarks extraction, matching and reconstruction.
func BenchmarkGPNNMatch(b *testing.B) {
	src := rand.NewPCG(1, 2)
	x := volume.Random(1, 3, 8, 24, 24, src)
	y := volume.Random(1, 3, 8, 24, 24, src)
	g := NewGPNN()
	g.Geometry = patch.Geometry{Size: 5, TemporalSize: 3, Stride: 2, TemporalStride: 1}
	g.Alpha = 0.005

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = g.Match(x, y)
	}
}

// BenchmarkSWDForwardBackward benchmarks the sliced loss with gradient.
func BenchmarkSWDForwardBackward(b *testing.B) {
	src := rand.NewPCG(3, 4)
	x := volume.Random(1, 3, 8, 24, 24, src)
	y := volume.Random(1, 3, 8, 24, 24, src)
	s := NewSWD()
	s.Geometry = patch.Geometry{Size: 5, TemporalSize: 5, Stride: 2, TemporalStride: 2}
	s.NumProj = 64
	s.Src = src

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = s.ForwardBackward(x, y, nil)
	}
}
