// Package gopatch re-exports the patch losses and the fitting loop.
package gopatch

import (
	"math/rand/v2"

	"github.com/FlavioCFOliveira/GoPatch/internal/config"
	"github.com/FlavioCFOliveira/GoPatch/internal/distance"
	"github.com/FlavioCFOliveira/GoPatch/internal/loss"
	"github.com/FlavioCFOliveira/GoPatch/internal/opt"
	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
	"github.com/FlavioCFOliveira/GoPatch/internal/train"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

// Re-export common types and functions for easier access
type (
	Volume    = volume.Volume
	Geometry  = patch.Geometry
	GPNN      = loss.GPNN
	Match     = loss.Match
	SWD       = loss.SWD
	Scope     = loss.Scope
	Metric    = distance.Kind
	Objective = train.Objective
	Trainer   = train.Trainer
	Callback  = train.Callback
	Optimizer = opt.Optimizer
	Config    = config.Config
)

const (
	ScopeSite   = loss.ScopeSite
	ScopeGlobal = loss.ScopeGlobal

	Euclidean = distance.KindEuclidean
	SSIM      = distance.KindSSIM
)

// Errors
var (
	ErrUnsupportedBatchSize    = volume.ErrUnsupportedBatchSize
	ErrShapeMismatch           = volume.ErrShapeMismatch
	ErrInvalidGeometry         = patch.ErrInvalidGeometry
	ErrUnknownDistanceFunction = distance.ErrUnknownDistanceFunction
	ErrNoCachedMatch           = loss.ErrNoCachedMatch
	ErrEmptyDistribution       = loss.ErrEmptyDistribution
	ErrInvalidConfig           = config.ErrInvalidConfig
)

// Volumes
func NewVolume(channels, frames, height, width int) *Volume {
	return volume.New(1, channels, frames, height, width)
}

func FromData(data []float64, channels, frames, height, width int) *Volume {
	return volume.FromData(data, 1, channels, frames, height, width)
}

func LoadVolume(filename string) (*Volume, error) {
	return volume.Load(filename)
}

// Losses
func NewGPNN() GPNN {
	return loss.NewGPNN()
}

func NewSWD() SWD {
	return loss.NewSWD()
}

func TruncatedMSE(x, y *Volume) (float64, error) {
	return loss.TruncatedMSE(x, y)
}

func TemporalMean(x, y *Volume) (float64, error) {
	return loss.TemporalMean(x, y)
}

func RobustLoss(r, alpha, scale float64) float64 {
	return loss.RobustLoss(r, alpha, scale)
}

func DuplicateToMatchLengths(a, b []float64, rng *rand.Rand) ([]float64, []float64) {
	return loss.DuplicateToMatchLengths(a, b, rng)
}

// Optimizers
func Adam(lr float64) Optimizer {
	return opt.NewAdam(lr)
}

func SGD(lr float64) Optimizer {
	return &opt.SGD{LearningRate: lr}
}

// Fitting
func NewTrainer(objective Objective, optimizer Optimizer, lr float64, decay, iterations int) *Trainer {
	return train.New(objective, optimizer, opt.NewExponentialDecay(lr, decay), iterations)
}

func EarlyStopping(patience int, threshold float64) *train.EarlyStopping {
	return train.NewEarlyStopping(patience, threshold)
}

func CSVLogger(filename string) *train.CSVLogger {
	return train.NewCSVLogger(filename, false)
}

// Configuration
func DefaultConfig() Config {
	return config.Default()
}

func LoadConfig(filename string) (Config, error) {
	return config.Load(filename)
}
