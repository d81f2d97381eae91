// Package project computes random 1-D projections of every patch of a volume,
// the filter bank behind the sliced distribution loss.
package project

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// Bank is a set of random directions shaped like a patch.
type Bank struct {
	patch.Geometry
	Channels int

	// Vectors is numProj x (channels * kt * k * k), laid out like patch.Set columns.
	Vectors *mat.Dense
}

// NewBank draws numProj standard normal directions. With more than one
// projection every coordinate is divided by its standard deviation across
// projections. A nil src draws from the global source.
func NewBank(numProj, channels int, g patch.Geometry, src rand.Source) *Bank {
	if numProj <= 0 {
		panic(fmt.Sprintf("project: numProj must be positive, got %d", numProj))
	}
	dim := g.Dim(channels)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	data := make([]float64, numProj*dim)
	for i := range data {
		data[i] = normal.Rand()
	}
	vectors := mat.NewDense(numProj, dim, data)

	if numProj > 1 {
		col := make([]float64, numProj)
		for j := 0; j < dim; j++ {
			mat.Col(col, j, vectors)
			std := stat.StdDev(col, nil)
			if std == 0 {
				continue
			}
			for i := 0; i < numProj; i++ {
				vectors.Set(i, j, col[i]/std)
			}
		}
	}

	return &Bank{Geometry: g, Channels: channels, Vectors: vectors}
}

// NumProj returns the number of directions.
func (b *Bank) NumProj() int {
	n, _ := b.Vectors.Dims()
	return n
}

// Project slides every direction over v and returns numProj x nPatches dot
// products, columns in patch.Set row order. It is equivalent to
// ProjectPatches on the extracted set without materializing it.
func (b *Bank) Project(v *volume.Volume) (*mat.Dense, error) {
	if err := v.CheckBatch(); err != nil {
		return nil, err
	}
	if v.Channels != b.Channels {
		return nil, fmt.Errorf("project: volume has %d channels, bank expects %d", v.Channels, b.Channels)
	}
	d, h, w, err := b.Extents(v.Frames, v.Height, v.Width)
	if err != nil {
		return nil, err
	}

	numProj := b.NumProj()
	nPatches := d * h * w
	out := make([]float64, numProj*nPatches)

	k, kt := b.Size, b.TemporalSize
	stride, tstride := b.Stride, b.TemporalStride
	for p := 0; p < numProj; p++ {
		weights := b.Vectors.RawRowView(p)
		outBase := out[p*nPatches : (p+1)*nPatches]
		widx := 0
		for c := 0; c < b.Channels; c++ {
			for a := 0; a < kt; a++ {
				for kh := 0; kh < k; kh++ {
					for kw := 0; kw < k; kw++ {
						wVal := weights[widx]
						widx++
						for ot := 0; ot < d; ot++ {
							inT := ot*tstride + a
							for oh := 0; oh < h; oh++ {
								inOffset := v.Index(c, inT, oh*stride+kh, kw)
								pos := (ot*h + oh) * w
								for ow := 0; ow < w; ow++ {
									outBase[pos+ow] += wVal * v.Data[inOffset+ow*stride]
								}
							}
						}
					}
				}
			}
		}
	}
	return mat.NewDense(numProj, nPatches, out), nil
}

// ProjectPatches multiplies the bank by an already extracted patch set.
func (b *Bank) ProjectPatches(s *patch.Set) *mat.Dense {
	var out mat.Dense
	out.Mul(b.Vectors, s.Rows.T())
	return &out
}

// Adjoint maps a gradient over projections (numProj x nPatches) back to the
// signal: every patch receives the direction-weighted sum of its gradients,
// and overlapping patches add up.
func (b *Bank) Adjoint(grad *mat.Dense, frames, height, width int) (*volume.Volume, error) {
	var rows mat.Dense
	rows.Mul(grad.T(), b.Vectors)
	signal, _, err := patch.Fold(&rows, b.Geometry, b.Channels, frames, height, width)
	return signal, err
}
