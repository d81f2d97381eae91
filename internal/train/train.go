// Package train fits a signal to a target by descending a patch objective.
package train

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/GoPatch/internal/activations"
	"github.com/FlavioCFOliveira/GoPatch/internal/opt"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// ErrNoTarget is returned when Fit is called without a target.
var ErrNoTarget = errors.New("train: no target")

// Trainer owns the fitting loop. The fitted signal is activation(params), so
// with the default sigmoid it stays inside (0, 1).
type Trainer struct {
	Objective  Objective
	Optimizer  opt.Optimizer
	Schedule   opt.Schedule
	Activation activations.Activation

	// Iterations per pyramid level.
	Iterations int
	// RefreshEvery recomputes cached objective state every n steps; 1 or
	// less refreshes on every step.
	RefreshEvery int

	// Levels > 1 fits coarse to fine, level k shrinking height and width by
	// Factor^k.
	Levels int
	Factor float64

	Callbacks []Callback

	params []float64
	signal *volume.Volume
	steps  int
}

// New creates a trainer with a sigmoid parameterisation, a single level and
// a refresh on every step.
func New(objective Objective, optimizer opt.Optimizer, schedule opt.Schedule, iterations int) *Trainer {
	return &Trainer{
		Objective:    objective,
		Optimizer:    optimizer,
		Schedule:     schedule,
		Activation:   activations.Sigmoid{},
		Iterations:   iterations,
		RefreshEvery: 1,
		Levels:       1,
		Factor:       0.5,
	}
}

// Signal returns the current fitted signal.
func (t *Trainer) Signal() *volume.Volume {
	return t.signal
}

// Steps returns the number of optimisation steps taken by the last Fit.
func (t *Trainer) Steps() int {
	return t.steps
}

// Fit starts from init and descends the objective against target. mask may
// be nil. init and target may differ in frames and spatial size; each level
// scales both by the same factor. The returned volume has init's shape.
func (t *Trainer) Fit(ctx context.Context, init, target, mask *volume.Volume) (*volume.Volume, error) {
	if target == nil {
		return nil, ErrNoTarget
	}
	if err := init.CheckBatch(); err != nil {
		return nil, err
	}
	if err := target.CheckBatch(); err != nil {
		return nil, err
	}

	levels := max(t.Levels, 1)
	t.steps = 0
	t.params = nil
	t.signal = init.Clone()

	for _, c := range t.Callbacks {
		c.OnTrainBegin(t)
	}
	defer func() {
		for _, c := range t.Callbacks {
			c.OnTrainEnd(t)
		}
	}()

	for level := levels - 1; level >= 0; level-- {
		scale := math.Pow(t.Factor, float64(level))
		lt := resize(target, scale)
		var lm *volume.Volume
		if mask != nil {
			lm = resize(mask, scale)
		}
		t.setSignal(t.signal.ResizeSpatial(scaled(init.Height, scale), scaled(init.Width, scale)))

		if err := t.fitLevel(ctx, level, lt, lm); err != nil {
			return nil, fmt.Errorf("level %d: %w", level, err)
		}
	}
	return t.signal, nil
}

func (t *Trainer) fitLevel(ctx context.Context, level int, target, mask *volume.Volume) error {
	if r, ok := t.Optimizer.(interface{ Reset() }); ok {
		r.Reset()
	}
	for _, c := range t.Callbacks {
		c.OnLevelBegin(level, t)
	}

	every := max(t.RefreshEvery, 1)
	for it := 0; it < t.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		refresh := it%every == 0
		l, grad, err := t.Objective.Evaluate(t.signal, target, mask, refresh)
		if err != nil {
			return err
		}
		activations.ChainTo(t.Activation, grad.Data, t.params)

		lr := opt.Apply(t.Optimizer, t.Schedule, t.steps)
		t.Optimizer.StepInPlace(t.params, grad.Data)
		activations.ActivateTo(t.Activation, t.signal.Data, t.params)

		s := Step{
			Level:        level,
			Iteration:    it,
			Global:       t.steps,
			Loss:         l,
			LearningRate: lr,
			Refreshed:    refresh,
		}
		t.steps++

		stop := false
		for _, c := range t.Callbacks {
			c.OnStepEnd(s, t)
			if st, ok := c.(Stopper); ok && st.ShouldStop() {
				stop = true
			}
		}
		if stop {
			break
		}
	}
	return nil
}

// setSignal replaces the fitted signal and rebuilds the parameters from it.
func (t *Trainer) setSignal(v *volume.Volume) {
	t.signal = v
	if len(t.params) != v.Len() {
		t.params = make([]float64, v.Len())
	}
	activations.InverseTo(t.Activation, t.params, v.Data)
}

func resize(v *volume.Volume, scale float64) *volume.Volume {
	return v.ResizeSpatial(scaled(v.Height, scale), scaled(v.Width, scale))
}

func scaled(n int, scale float64) int {
	return max(1, int(math.Round(float64(n)*scale)))
}
