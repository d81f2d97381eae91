// Package patch slices volumes into overlapping spatiotemporal patches and
// folds patch collections back into signal space.
package patch

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// ErrInvalidGeometry is returned when patch sizes or strides are not positive
// or leave an output extent below 1.
var ErrInvalidGeometry = errors.New("patch: invalid geometry")

// Geometry describes a patch window and how it slides over a volume.
type Geometry struct {
	Size           int // spatial window (height and width)
	TemporalSize   int // temporal window
	Stride         int // spatial stride
	TemporalStride int // temporal stride
}

// Validate checks every field is positive.
func (g Geometry) Validate() error {
	if g.Size <= 0 || g.TemporalSize <= 0 || g.Stride <= 0 || g.TemporalStride <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidGeometry, g)
	}
	return nil
}

// Dim returns the length of a flattened patch with the given channel count.
func (g Geometry) Dim(channels int) int {
	return channels * g.TemporalSize * g.Size * g.Size
}

// Extents returns the number of window positions along time, height and width.
// out = (in - (k-1) - 1) / stride + 1 per axis.
func (g Geometry) Extents(frames, height, width int) (d, h, w int, err error) {
	if err := g.Validate(); err != nil {
		return 0, 0, 0, err
	}
	d = outExtent(frames, g.TemporalSize, g.TemporalStride)
	h = outExtent(height, g.Size, g.Stride)
	w = outExtent(width, g.Size, g.Stride)
	if d < 1 || h < 1 || w < 1 {
		return 0, 0, 0, fmt.Errorf("%w: %+v leaves extents (%d, %d, %d) for input (%d, %d, %d)",
			ErrInvalidGeometry, g, d, h, w, frames, height, width)
	}
	return d, h, w, nil
}

func outExtent(in, k, stride int) int {
	n := in - (k - 1) - 1
	if n < 0 {
		return 0
	}
	return n/stride + 1
}

// Set is a volume viewed as a collection of flattened patches.
// Rows are ordered (t, i, j) with j fastest; columns are ordered
// (channel, kt, kh, kw) with kw fastest.
type Set struct {
	Geometry
	Channels int

	// Output extents.
	Frames int
	Height int
	Width  int

	Rows *mat.Dense
}

// Len returns the number of patches.
func (s *Set) Len() int {
	return s.Frames * s.Height * s.Width
}

// Dim returns the length of one flattened patch.
func (s *Set) Dim() int {
	return s.Geometry.Dim(s.Channels)
}

// Index returns the row of the patch at output position (t, i, j).
func (s *Set) Index(t, i, j int) int {
	return (t*s.Height+i)*s.Width + j
}

// Sites returns the number of spatial window positions.
func (s *Set) Sites() int {
	return s.Height * s.Width
}

// SiteRows lists, in temporal order, the rows of the patches sharing spatial site.
func (s *Set) SiteRows(site int) []int {
	rows := make([]int, s.Frames)
	plane := s.Height * s.Width
	for t := range rows {
		rows[t] = t*plane + site
	}
	return rows
}

// Extract copies every window of v into a patch set.
func Extract(v *volume.Volume, g Geometry) (*Set, error) {
	if err := v.CheckBatch(); err != nil {
		return nil, err
	}
	d, h, w, err := g.Extents(v.Frames, v.Height, v.Width)
	if err != nil {
		return nil, err
	}

	s := &Set{Geometry: g, Channels: v.Channels, Frames: d, Height: h, Width: w}
	dim := s.Dim()
	data := make([]float64, s.Len()*dim)

	k, kt := g.Size, g.TemporalSize
	for t := 0; t < d; t++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				row := data[s.Index(t, i, j)*dim:]
				col := 0
				for c := 0; c < v.Channels; c++ {
					for a := 0; a < kt; a++ {
						for p := 0; p < k; p++ {
							base := v.Index(c, t*g.TemporalStride+a, i*g.Stride+p, j*g.Stride)
							copy(row[col:col+k], v.Data[base:base+k])
							col += k
						}
					}
				}
			}
		}
	}
	s.Rows = mat.NewDense(s.Len(), dim, data)
	return s, nil
}

// Fold scatter-adds every patch row back into a volume of the given extents,
// the adjoint of Extract. It also returns the single-channel coverage count:
// how many patches touched each position. Neither result is normalized.
func Fold(rows mat.Matrix, g Geometry, channels, frames, height, width int) (signal, weight *volume.Volume, err error) {
	d, h, w, err := g.Extents(frames, height, width)
	if err != nil {
		return nil, nil, err
	}
	n, dim := rows.Dims()
	if n != d*h*w || dim != g.Dim(channels) {
		return nil, nil, fmt.Errorf("%w: %dx%d rows for %d patches of length %d",
			ErrInvalidGeometry, n, dim, d*h*w, g.Dim(channels))
	}

	signal = volume.New(1, channels, frames, height, width)
	weight = volume.New(1, 1, frames, height, width)

	k, kt := g.Size, g.TemporalSize
	buf := make([]float64, dim)
	for t := 0; t < d; t++ {
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				mat.Row(buf, (t*h+i)*w+j, rows)
				col := 0
				for c := 0; c < channels; c++ {
					for a := 0; a < kt; a++ {
						for p := 0; p < k; p++ {
							base := signal.Index(c, t*g.TemporalStride+a, i*g.Stride+p, j*g.Stride)
							dst := signal.Data[base : base+k]
							for q := range dst {
								dst[q] += buf[col+q]
							}
							col += k
						}
					}
				}
				for a := 0; a < kt; a++ {
					for p := 0; p < k; p++ {
						base := weight.Index(0, t*g.TemporalStride+a, i*g.Stride+p, j*g.Stride)
						for q := 0; q < k; q++ {
							weight.Data[base+q]++
						}
					}
				}
			}
		}
	}
	return signal, weight, nil
}

// Gather returns the rows of src selected by idx, in order.
func Gather(src *mat.Dense, idx []int) *mat.Dense {
	_, dim := src.Dims()
	data := make([]float64, len(idx)*dim)
	for r, i := range idx {
		copy(data[r*dim:(r+1)*dim], src.RawRowView(i))
	}
	return mat.NewDense(len(idx), dim, data)
}
