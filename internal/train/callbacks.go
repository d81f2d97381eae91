package train

import (
	"log/slog"
	"math"
)

// Step describes one completed optimisation step.
type Step struct {
	Level        int // pyramid level, 0 is full resolution
	Iteration    int // step within the level
	Global       int // step across all levels
	Loss         float64
	LearningRate float64
	Refreshed    bool
}

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(t *Trainer)
	OnTrainEnd(t *Trainer)
	OnLevelBegin(level int, t *Trainer)
	OnStepEnd(s Step, t *Trainer)
}

// Stopper is implemented by callbacks that can end a level early.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(t *Trainer)            {}
func (c BaseCallback) OnTrainEnd(t *Trainer)              {}
func (c BaseCallback) OnLevelBegin(level int, t *Trainer) {}
func (c BaseCallback) OnStepEnd(s Step, t *Trainer)       {}

// EarlyStopping stops a level when the loss has stopped improving.
// State is reset at the start of every level.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64

	best    float64
	badRuns int
	Stopped bool
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		best:      math.Inf(1),
	}
}

func (c *EarlyStopping) OnLevelBegin(level int, t *Trainer) {
	c.best = math.Inf(1)
	c.badRuns = 0
	c.Stopped = false
}

func (c *EarlyStopping) OnStepEnd(s Step, t *Trainer) {
	if s.Loss < c.best-c.Threshold {
		c.best = s.Loss
		c.badRuns = 0
	} else {
		c.badRuns++
	}
	if c.badRuns >= c.Patience {
		c.Stopped = true
	}
}

// ShouldStop implements Stopper.
func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// Checkpoint saves the fitted signal whenever the loss at full resolution
// reaches a new best.
type Checkpoint struct {
	BaseCallback
	Filename string

	best float64
	err  error
}

func NewCheckpoint(filename string) *Checkpoint {
	return &Checkpoint{
		Filename: filename,
		best:     math.Inf(1),
	}
}

func (c *Checkpoint) OnStepEnd(s Step, t *Trainer) {
	if s.Level != 0 || s.Loss >= c.best {
		return
	}
	c.best = s.Loss
	if err := t.Signal().Save(c.Filename); err != nil && c.err == nil {
		c.err = err
	}
}

// Err returns the first save failure.
func (c *Checkpoint) Err() error {
	return c.err
}

// Logger logs progress through slog every Interval steps.
type Logger struct {
	BaseCallback
	Log      *slog.Logger
	Interval int
}

func (c Logger) OnLevelBegin(level int, t *Trainer) {
	x := t.Signal()
	c.Log.Info("pyramid level", "level", level, "height", x.Height, "width", x.Width)
}

func (c Logger) OnStepEnd(s Step, t *Trainer) {
	if c.Interval > 0 && s.Iteration%c.Interval == 0 {
		c.Log.Info("step",
			"level", s.Level,
			"iter", s.Iteration,
			"loss", s.Loss,
			"lr", s.LearningRate,
			"refreshed", s.Refreshed)
	}
}

func (c Logger) OnTrainEnd(t *Trainer) {
	c.Log.Debug("training finished", "steps", t.Steps())
}
