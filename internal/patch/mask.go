package patch

import (
	"fmt"

	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// Touching reports, for every window position of g over mask, whether any
// mask value inside the window is positive. Entries follow Set row order.
// Only the first channel of mask is read.
func Touching(mask *volume.Volume, g Geometry) ([]bool, error) {
	if err := mask.CheckBatch(); err != nil {
		return nil, err
	}
	d, h, w, err := g.Extents(mask.Frames, mask.Height, mask.Width)
	if err != nil {
		return nil, fmt.Errorf("mask: %w", err)
	}

	out := make([]bool, d*h*w)
	for t := 0; t < d; t++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				out[(t*h+i)*w+j] = windowPositive(mask, g, t, i, j)
			}
		}
	}
	return out, nil
}

func windowPositive(mask *volume.Volume, g Geometry, t, i, j int) bool {
	for a := 0; a < g.TemporalSize; a++ {
		for p := 0; p < g.Size; p++ {
			base := mask.Index(0, t*g.TemporalStride+a, i*g.Stride+p, j*g.Stride)
			for _, m := range mask.Data[base : base+g.Size] {
				if m > 0 {
					return true
				}
			}
		}
	}
	return false
}
