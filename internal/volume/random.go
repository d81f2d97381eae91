package volume

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Random fills a new volume with samples drawn uniformly from [0, 1).
// A nil src draws from the global source.
func Random(batch, channels, frames, height, width int, src rand.Source) *Volume {
	v := New(batch, channels, frames, height, width)
	dist := distuv.Uniform{Min: 0, Max: 1, Src: src}
	for i := range v.Data {
		v.Data[i] = dist.Rand()
	}
	return v
}

// Drifting renders a random texture translated by (dy, dx) pixels per frame,
// wrapping at the borders. Frame t holds texture[(i + t*dy) mod h, (j + t*dx) mod w].
func Drifting(channels, frames, height, width, dy, dx int, src rand.Source) *Volume {
	texture := Random(1, channels, 1, height, width, src)
	v := New(1, channels, frames, height, width)
	for c := 0; c < channels; c++ {
		for t := 0; t < frames; t++ {
			for i := 0; i < height; i++ {
				si := mod(i+t*dy, height)
				for j := 0; j < width; j++ {
					v.Set(c, t, i, j, texture.At(c, 0, si, mod(j+t*dx, width)))
				}
			}
		}
	}
	return v
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
