// Package recon rebuilds a signal from matched target patches by weighted
// overlap-add.
package recon

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// WeightFloor is the smallest divisor used when averaging overlapping patches.
// Positions no patch covers reconstruct to zero.
const WeightFloor = 1e-10

// ErrBadCorrespondence is returned when a correspondence does not fit the
// source or target patch sets.
var ErrBadCorrespondence = errors.New("recon: bad correspondence")

// Result is an overlap-averaged reconstruction and its confidence map.
type Result struct {
	// Signal has the source's channels and extents.
	Signal *volume.Volume
	// Weight has one channel, lies in [0, 1] and peaks at 1 where patch
	// coverage is densest.
	Weight *volume.Volume
}

// Reconstruct places target patch corr[k] at the position of source patch k,
// then folds and averages. The source patch grid follows from geometry g and
// the source extents (channels, frames, height, width).
func Reconstruct(corr []int, y *patch.Set, channels, frames, height, width int) (*Result, error) {
	d, h, w, err := y.Geometry.Extents(frames, height, width)
	if err != nil {
		return nil, err
	}
	if len(corr) != d*h*w {
		return nil, fmt.Errorf("%w: %d entries for %d source patches", ErrBadCorrespondence, len(corr), d*h*w)
	}
	n := y.Len()
	for k, idx := range corr {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: entry %d = %d outside [0, %d)", ErrBadCorrespondence, k, idx, n)
		}
	}

	gathered := patch.Gather(y.Rows, corr)
	signal, weight, err := patch.Fold(gathered, y.Geometry, channels, frames, height, width)
	if err != nil {
		return nil, err
	}

	for i, wv := range weight.Data {
		weight.Data[i] = max(wv, WeightFloor)
	}
	plane := frames * height * width
	for c := 0; c < channels; c++ {
		floats.Div(signal.Data[c*plane:(c+1)*plane], weight.Data)
	}
	floats.Scale(1/floats.Max(weight.Data), weight.Data)

	return &Result{Signal: signal, Weight: weight}, nil
}
