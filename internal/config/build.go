package config

import (
	"fmt"
	"math/rand/v2"

	"github.com/FlavioCFOliveira/GoPatch/internal/activations"
	"github.com/FlavioCFOliveira/GoPatch/internal/loss"
	"github.com/FlavioCFOliveira/GoPatch/internal/opt"
	"github.com/FlavioCFOliveira/GoPatch/internal/train"
)

// GPNN builds the GPNN loss described by c.
func (c Config) GPNN() (loss.GPNN, error) {
	name, err := ParseLossName(c.Loss)
	if err != nil {
		return loss.GPNN{}, err
	}
	rou, err := ParseRou(c.Rou)
	if err != nil {
		return loss.GPNN{}, err
	}
	g := loss.NewGPNN()
	g.Geometry = c.Geometry()
	g.Alpha = c.Alpha
	if name.HasAlpha {
		g.Alpha = name.Alpha
	}
	g.Rou = rou
	g.Scaling = c.Scaling
	g.ChunkSize = c.ChunkSize
	g.Metric = c.DistFn
	g.Scope = c.Scope
	return g, nil
}

// SWD builds the sliced loss described by c, drawing randomness from src.
func (c Config) SWD(src rand.Source) loss.SWD {
	s := loss.NewSWD()
	s.Geometry = c.Geometry()
	s.NumProj = c.NumProj
	s.MaskFactor = c.MaskFactor
	s.Src = src
	return s
}

// Objective builds the objective selected by c.Loss.
func (c Config) Objective(src rand.Source) (train.Objective, error) {
	name, err := ParseLossName(c.Loss)
	if err != nil {
		return nil, err
	}
	switch name.Kind {
	case LossGPNN:
		g, err := c.GPNN()
		if err != nil {
			return nil, err
		}
		return train.NewGPNN(g), nil
	case LossSWD:
		return train.SWD{Loss: c.SWD(src)}, nil
	case LossTruncatedMSE:
		return train.TruncatedMSE{}, nil
	case LossTemporalMean:
		return train.TemporalMean{}, nil
	default:
		return nil, fmt.Errorf("unknown loss %q", c.Loss)
	}
}

// NewOptimizer builds the configured optimizer at the initial learning rate.
func (t Train) NewOptimizer() (opt.Optimizer, error) {
	switch t.Optimizer {
	case "adam":
		return opt.NewAdam(t.LRate), nil
	case "sgd":
		return &opt.SGD{LearningRate: t.LRate}, nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", t.Optimizer)
	}
}

// Trainer builds a trainer for objective with the optimizer, schedule,
// pyramid and refresh settings of c.Train. Callbacks are left to the caller.
func (c Config) Trainer(objective train.Objective) (*train.Trainer, error) {
	o, err := c.Train.NewOptimizer()
	if err != nil {
		return nil, err
	}
	act, err := activations.Parse(c.Train.Activation)
	if err != nil {
		return nil, err
	}
	tr := train.New(objective, o, opt.NewExponentialDecay(c.Train.LRate, c.Train.LRateDecay), c.Train.Iterations)
	tr.Activation = act
	tr.RefreshEvery = c.Train.RefreshEvery
	tr.Levels = c.Train.PyramidLevels
	tr.Factor = c.Train.PyramidFactor
	return tr, nil
}
