// Package volume provides the spatiotemporal signal container shared by every loss.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrUnsupportedBatchSize is returned when a volume carries a batch dimension other than 1.
var ErrUnsupportedBatchSize = errors.New("volume: unsupported batch size")

// ErrShapeMismatch is returned when two volumes must share a shape and do not.
var ErrShapeMismatch = errors.New("volume: shape mismatch")

// Volume is a dense 5D signal stored row-major as
// [batch, channels, frames, height, width].
// Input signals hold values in [0, 1].
type Volume struct {
	Batch    int
	Channels int
	Frames   int
	Height   int
	Width    int

	Data []float64
}

// Shape is the extent of a volume along each axis.
type Shape struct {
	Batch, Channels, Frames, Height, Width int
}

// Len returns the number of elements a volume of this shape holds.
func (s Shape) Len() int {
	return s.Batch * s.Channels * s.Frames * s.Height * s.Width
}

// New allocates a zero volume.
func New(batch, channels, frames, height, width int) *Volume {
	if batch <= 0 || channels <= 0 || frames <= 0 || height <= 0 || width <= 0 {
		panic(fmt.Sprintf("volume: invalid shape (%d, %d, %d, %d, %d)", batch, channels, frames, height, width))
	}
	return &Volume{
		Batch:    batch,
		Channels: channels,
		Frames:   frames,
		Height:   height,
		Width:    width,
		Data:     make([]float64, batch*channels*frames*height*width),
	}
}

// FromData wraps data as a volume without copying.
// Panics if len(data) does not match the shape.
func FromData(data []float64, batch, channels, frames, height, width int) *Volume {
	if len(data) != batch*channels*frames*height*width {
		panic(fmt.Sprintf("volume: data length %d does not match shape (%d, %d, %d, %d, %d)",
			len(data), batch, channels, frames, height, width))
	}
	return &Volume{
		Batch:    batch,
		Channels: channels,
		Frames:   frames,
		Height:   height,
		Width:    width,
		Data:     data,
	}
}

// NewLike allocates a zero volume with the shape of v.
func NewLike(v *Volume) *Volume {
	return New(v.Batch, v.Channels, v.Frames, v.Height, v.Width)
}

// Shape returns the volume's extents.
func (v *Volume) Shape() Shape {
	return Shape{v.Batch, v.Channels, v.Frames, v.Height, v.Width}
}

// Len returns the number of elements.
func (v *Volume) Len() int {
	return len(v.Data)
}

// SameShape reports whether v and o have identical extents.
func (v *Volume) SameShape(o *Volume) bool {
	return v.Shape() == o.Shape()
}

// CheckBatch returns ErrUnsupportedBatchSize unless the batch dimension is 1.
func (v *Volume) CheckBatch() error {
	if v.Batch != 1 {
		return fmt.Errorf("%w: got %d, want 1", ErrUnsupportedBatchSize, v.Batch)
	}
	return nil
}

// Index returns the flat offset of (c, t, h, w) in the first batch entry.
func (v *Volume) Index(c, t, h, w int) int {
	return ((c*v.Frames+t)*v.Height+h)*v.Width + w
}

// At returns the value at (c, t, h, w) of the first batch entry.
func (v *Volume) At(c, t, h, w int) float64 {
	return v.Data[v.Index(c, t, h, w)]
}

// Set stores val at (c, t, h, w) of the first batch entry.
func (v *Volume) Set(c, t, h, w int, val float64) {
	v.Data[v.Index(c, t, h, w)] = val
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	out := NewLike(v)
	copy(out.Data, v.Data)
	return out
}

// Rescaled maps [0, 1] values to [-1, 1] in a new volume.
func (v *Volume) Rescaled() *Volume {
	out := v.Clone()
	floats.Scale(2, out.Data)
	floats.AddConst(-1, out.Data)
	return out
}

// TruncateFrames returns a copy holding the first n frames.
func (v *Volume) TruncateFrames(n int) *Volume {
	if n > v.Frames {
		n = v.Frames
	}
	out := New(v.Batch, v.Channels, n, v.Height, v.Width)
	plane := v.Height * v.Width
	for b := 0; b < v.Batch; b++ {
		for c := 0; c < v.Channels; c++ {
			src := (b*v.Channels + c) * v.Frames * plane
			dst := (b*v.Channels + c) * n * plane
			copy(out.Data[dst:dst+n*plane], v.Data[src:src+n*plane])
		}
	}
	return out
}
