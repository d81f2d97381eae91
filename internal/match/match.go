// Package match finds nearest-neighbour correspondences between patch sets
// without holding the full n1 x n2 distance matrix in memory.
package match

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/FlavioCFOliveira/GoPatch/internal/distance"
)

// DefaultChunkSize bounds the rows of each distance block.
const DefaultChunkSize = 1024

// AlphaDisabled is the threshold above which alpha turns contextual
// normalization off.
const AlphaDisabled = 100

// Matcher computes correspondences in chunks of ChunkSize rows.
// Peak memory is O(max(n1, n2) * ChunkSize).
type Matcher struct {
	// Alpha is added to every target's minimum distance to form its normalizer.
	Alpha float64
	// Normalize enables contextual normalization.
	Normalize bool
	ChunkSize int
}

// NewMatcher enables normalization when alpha <= 100. A non-positive chunk
// size selects DefaultChunkSize.
func NewMatcher(alpha float64, chunkSize int) *Matcher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Matcher{
		Alpha:     alpha,
		Normalize: alpha <= AlphaDisabled,
		ChunkSize: chunkSize,
	}
}

func (m *Matcher) chunk() int {
	if m.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return m.ChunkSize
}

// ColumnMins returns, for every row of y, its smallest distance to any row of x.
// Rows of y are processed ChunkSize at a time.
func (m *Matcher) ColumnMins(x, y *mat.Dense, metric distance.Metric) []float64 {
	n2, d := y.Dims()
	mins := make([]float64, n2)
	step := m.chunk()
	for start := 0; start < n2; start += step {
		end := min(start+step, n2)
		block := metric.Distance(x, y.Slice(start, end, 0, d).(*mat.Dense))
		n1, _ := block.Dims()
		col := make([]float64, n1)
		for j := start; j < end; j++ {
			mat.Col(col, j-start, block)
			mins[j] = floats.Min(col)
		}
	}
	return mins
}

// Normalizer returns the per-target divisor: alpha + column minimum when
// normalization is enabled, nil otherwise (an implicit divisor of 1).
func (m *Matcher) Normalizer(x, y *mat.Dense, metric distance.Metric) []float64 {
	if !m.Normalize {
		return nil
	}
	norm := m.ColumnMins(x, y, metric)
	floats.AddConst(m.Alpha, norm)
	return norm
}

// Match returns, for every row of x, the index of its nearest row of y
// after dividing each distance by the target's normalizer. Ties resolve to
// the lowest index.
func (m *Matcher) Match(x, y *mat.Dense, metric distance.Metric) []int {
	n1, d := x.Dims()
	norm := m.Normalizer(x, y, metric)

	nns := make([]int, n1)
	step := m.chunk()
	for start := 0; start < n1; start += step {
		end := min(start+step, n1)
		block := metric.Distance(x.Slice(start, end, 0, d).(*mat.Dense), y)
		for i := start; i < end; i++ {
			row := block.RawRowView(i - start)
			if norm != nil {
				normalize(row, norm)
			}
			nns[i] = floats.MinIdx(row)
		}
	}
	return nns
}

// normalize divides row by norm in place. A zero normalizer only occurs with
// alpha 0 and an exact match; the exact match keeps distance 0 and every
// other candidate for that target becomes +Inf.
func normalize(row, norm []float64) {
	for j, n := range norm {
		switch {
		case n != 0:
			row[j] /= n
		case row[j] != 0:
			row[j] = math.Inf(1)
		}
	}
}
