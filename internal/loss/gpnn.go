package loss

import (
	"fmt"
	"strings"

	"github.com/FlavioCFOliveira/GoPatch/internal/distance"
	"github.com/FlavioCFOliveira/GoPatch/internal/match"
	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/recon"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// Scope selects which target patches a source patch may match.
type Scope int

const (
	// ScopeSite matches each source patch against the target patches at the
	// same spatial window position, across time.
	ScopeSite Scope = iota
	// ScopeGlobal matches against every target patch.
	ScopeGlobal
)

func (s Scope) String() string {
	switch s {
	case ScopeSite:
		return "site"
	case ScopeGlobal:
		return "global"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope maps a configuration name to a Scope.
func ParseScope(name string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "site", "":
		return ScopeSite, nil
	case "global":
		return ScopeGlobal, nil
	default:
		return 0, fmt.Errorf("loss: unknown match scope %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	parsed, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// GPNN pulls a source volume toward its nearest target patches.
//
// Each source patch is matched to a target patch, the matched patches are
// overlap-averaged at the source positions, and the residual against that
// reconstruction is scored with RobustLoss, down-weighted where patch
// coverage is sparse.
type GPNN struct {
	patch.Geometry

	// Alpha enables contextual normalization when <= 100.
	Alpha float64
	// Rou and Scaling shape the robust penalty.
	Rou     float64
	Scaling float64

	ChunkSize int
	Metric    distance.Kind
	Scope     Scope
}

// NewGPNN returns a GPNN loss with 7x7x7 dense patches, normalization off,
// Cauchy penalty at scale 0.2 and Euclidean matching per site.
func NewGPNN() GPNN {
	return GPNN{
		Geometry:  patch.Geometry{Size: 7, TemporalSize: 7, Stride: 1, TemporalStride: 1},
		Alpha:     1e10,
		Rou:       0,
		Scaling:   0.2,
		ChunkSize: match.DefaultChunkSize,
		Metric:    distance.KindEuclidean,
		Scope:     ScopeSite,
	}
}

// Match is the correspondence and reconstruction computed for one
// (source, target) pair. It is returned by Forward and may be passed back to
// later calls with sameInput set, provided the caller knows both volumes are
// unchanged; this is not verified.
type Match struct {
	// Correspondence holds, per source patch, the target patch row it matched.
	Correspondence []int
	*recon.Result
}

// Match extracts patches from x and y, finds nearest neighbours and rebuilds
// the matched target at x's positions.
func (g GPNN) Match(x, y *volume.Volume) (*Match, error) {
	if err := x.CheckBatch(); err != nil {
		return nil, err
	}
	if err := y.CheckBatch(); err != nil {
		return nil, err
	}
	if x.Channels != y.Channels {
		return nil, fmt.Errorf("%w: %d vs %d channels", volume.ErrShapeMismatch, x.Channels, y.Channels)
	}

	xs, err := patch.Extract(x, g.Geometry)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	ys, err := patch.Extract(y, g.Geometry)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	metric, err := distance.New(g.Metric, distance.Shape{
		Channels: x.Channels,
		Frames:   g.TemporalSize,
		Height:   g.Size,
		Width:    g.Size,
	})
	if err != nil {
		return nil, err
	}
	matcher := match.NewMatcher(g.Alpha, g.ChunkSize)

	var corr []int
	switch g.Scope {
	case ScopeGlobal:
		corr = matcher.Match(xs.Rows, ys.Rows, metric)
	case ScopeSite:
		if xs.Height != ys.Height || xs.Width != ys.Width {
			return nil, fmt.Errorf("%w: source %dx%d, target %dx%d",
				ErrSiteMismatch, xs.Height, xs.Width, ys.Height, ys.Width)
		}
		corr = make([]int, xs.Len())
		for site := 0; site < xs.Sites(); site++ {
			xRows := xs.SiteRows(site)
			yRows := ys.SiteRows(site)
			local := matcher.Match(patch.Gather(xs.Rows, xRows), patch.Gather(ys.Rows, yRows), metric)
			for k, nn := range local {
				corr[xRows[k]] = yRows[nn]
			}
		}
	default:
		return nil, fmt.Errorf("loss: unknown match scope %v", g.Scope)
	}

	res, err := recon.Reconstruct(corr, ys, x.Channels, x.Frames, x.Height, x.Width)
	if err != nil {
		return nil, err
	}
	return &Match{Correspondence: corr, Result: res}, nil
}

// Loss scores x against a reconstruction: the mean over every element of
// RobustLoss(x - reconstruction) times the confidence weight.
func (g GPNN) Loss(x *volume.Volume, m *Match) (float64, error) {
	if err := g.checkMatch(x, m); err != nil {
		return 0, err
	}
	plane := x.Frames * x.Height * x.Width
	var sum float64
	for c := 0; c < x.Channels; c++ {
		for k := 0; k < plane; k++ {
			i := c*plane + k
			sum += RobustLoss(x.Data[i]-m.Signal.Data[i], g.Rou, g.Scaling) * m.Weight.Data[k]
		}
	}
	return sum / float64(x.Len()), nil
}

// Backward returns dLoss/dx with the reconstruction held fixed.
func (g GPNN) Backward(x *volume.Volume, m *Match) (*volume.Volume, error) {
	if err := g.checkMatch(x, m); err != nil {
		return nil, err
	}
	grad := volume.NewLike(x)
	plane := x.Frames * x.Height * x.Width
	inv := 1 / float64(x.Len())
	for c := 0; c < x.Channels; c++ {
		for k := 0; k < plane; k++ {
			i := c*plane + k
			grad.Data[i] = RobustGrad(x.Data[i]-m.Signal.Data[i], g.Rou, g.Scaling) * m.Weight.Data[k] * inv
		}
	}
	return grad, nil
}

// Forward computes the loss of x against y. With sameInput set, prev is
// reused without extraction or matching; otherwise a fresh match is
// computed. The match used is returned for the next call.
func (g GPNN) Forward(x, y *volume.Volume, prev *Match, sameInput bool) (float64, *Match, error) {
	m := prev
	if sameInput {
		if prev == nil {
			return 0, nil, ErrNoCachedMatch
		}
	} else {
		var err error
		if m, err = g.Match(x, y); err != nil {
			return 0, nil, err
		}
	}
	l, err := g.Loss(x, m)
	if err != nil {
		return 0, nil, err
	}
	return l, m, nil
}

func (g GPNN) checkMatch(x *volume.Volume, m *Match) error {
	if err := x.CheckBatch(); err != nil {
		return err
	}
	if m == nil || m.Result == nil {
		return ErrNoCachedMatch
	}
	if !m.Signal.SameShape(x) {
		return fmt.Errorf("%w: match built for %+v, source is %+v", volume.ErrShapeMismatch, m.Signal.Shape(), x.Shape())
	}
	return nil
}
