// Package config loads, validates and applies loss and fitting settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/FlavioCFOliveira/GoPatch/internal/activations"
	"github.com/FlavioCFOliveira/GoPatch/internal/distance"
	"github.com/FlavioCFOliveira/GoPatch/internal/loss"
	"github.com/FlavioCFOliveira/GoPatch/internal/patch"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config selects a loss and its parameters.
type Config struct {
	// Loss is one of gpnn, gpnn_<alpha>, swd, mse or avg.
	Loss string `toml:"loss"`

	PatchSize         int `toml:"patch_size"`
	TemporalPatchSize int `toml:"temporal_patch_size"`
	Stride            int `toml:"stride"`
	TemporalStride    int `toml:"temporal_stride"`

	// Alpha enables contextual normalisation when <= 100. A gpnn_<alpha>
	// loss name takes precedence.
	Alpha float64 `toml:"alpha"`
	// Rou is a number or one of cauchy, mse, abs.
	Rou     string  `toml:"rou"`
	Scaling float64 `toml:"scaling"`

	DistFn    distance.Kind `toml:"dist_fn"`
	ChunkSize int           `toml:"chunk_size"`
	Scope     loss.Scope    `toml:"scope"`

	NumProj    int `toml:"num_proj"`
	MaskFactor int `toml:"mask_factor"`

	Train Train `toml:"train"`
}

// Train configures the fitting loop.
type Train struct {
	Iterations   int     `toml:"iterations"`
	Optimizer    string  `toml:"optimizer"`
	LRate        float64 `toml:"lrate"`
	LRateDecay   int     `toml:"lrate_decay"` // thousands of steps per 10x decay, 0 disables
	RefreshEvery int     `toml:"refresh_every"`
	PrintEvery   int     `toml:"print_every"`
	Patience     int     `toml:"patience"` // early stopping, 0 disables

	PyramidLevels int     `toml:"pyramid_levels"`
	PyramidFactor float64 `toml:"pyramid_factor"`

	Activation string `toml:"activation"`
	Seed       uint64 `toml:"seed"`
	CSVLog     string `toml:"csv_log"`
	Checkpoint string `toml:"checkpoint"`
}

// Default returns the settings of the original fitting runs.
func Default() Config {
	return Config{
		Loss:              "gpnn",
		PatchSize:         5,
		TemporalPatchSize: 5,
		Stride:            2,
		TemporalStride:    2,
		Alpha:             1e10,
		Rou:               "0",
		Scaling:           0.2,
		DistFn:            distance.KindEuclidean,
		ChunkSize:         1024,
		Scope:             loss.ScopeSite,
		NumProj:           128,
		MaskFactor:        0,
		Train: Train{
			Iterations:    600,
			Optimizer:     "adam",
			LRate:         5e-4,
			LRateDecay:    30,
			RefreshEvery:  1,
			PrintEvery:    300,
			PyramidLevels: 1,
			PyramidFactor: 0.5,
			Activation:    "sigmoid",
			Seed:          666,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected.
func Load(filename string) (Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads TOML from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Save writes cfg to a TOML file.
func (c Config) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return c.Encode(file)
}

// Geometry returns the patch window.
func (c Config) Geometry() patch.Geometry {
	return patch.Geometry{
		Size:           c.PatchSize,
		TemporalSize:   c.TemporalPatchSize,
		Stride:         c.Stride,
		TemporalStride: c.TemporalStride,
	}
}

// Validate reports every violated constraint, each wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	name, err := ParseLossName(c.Loss)
	if err != nil {
		bad("%v", err)
	}
	if err := c.Geometry().Validate(); err != nil {
		bad("%v", err)
	}
	if _, err := ParseRou(c.Rou); err != nil {
		bad("%v", err)
	}
	if c.Scaling <= 0 {
		bad("scaling must be positive, got %v", c.Scaling)
	}
	if c.DistFn != distance.KindEuclidean && c.DistFn != distance.KindSSIM {
		bad("unknown dist_fn %v", c.DistFn)
	}
	if c.ChunkSize < 0 {
		bad("chunk_size must not be negative, got %d", c.ChunkSize)
	}
	if c.Scope != loss.ScopeSite && c.Scope != loss.ScopeGlobal {
		bad("unknown scope %v", c.Scope)
	}
	if name.Kind == LossSWD && c.NumProj <= 0 {
		bad("num_proj must be positive, got %d", c.NumProj)
	}
	if c.MaskFactor < 0 {
		bad("mask_factor must not be negative, got %d", c.MaskFactor)
	}

	t := c.Train
	if t.Iterations <= 0 {
		bad("train.iterations must be positive, got %d", t.Iterations)
	}
	if t.Optimizer != "adam" && t.Optimizer != "sgd" {
		bad("train.optimizer must be adam or sgd, got %q", t.Optimizer)
	}
	if t.LRate <= 0 {
		bad("train.lrate must be positive, got %v", t.LRate)
	}
	if t.LRateDecay < 0 {
		bad("train.lrate_decay must not be negative, got %d", t.LRateDecay)
	}
	if t.RefreshEvery < 0 || t.PrintEvery < 0 || t.Patience < 0 {
		bad("train.refresh_every, print_every and patience must not be negative")
	}
	if t.PyramidLevels < 1 {
		bad("train.pyramid_levels must be at least 1, got %d", t.PyramidLevels)
	}
	if t.PyramidFactor <= 0 || t.PyramidFactor > 1 {
		bad("train.pyramid_factor must be in (0, 1], got %v", t.PyramidFactor)
	}
	if _, err := activations.Parse(t.Activation); err != nil {
		bad("%v", err)
	}
	return errors.Join(errs...)
}

// LossKind names a loss family.
type LossKind string

const (
	LossGPNN         LossKind = "gpnn"
	LossSWD          LossKind = "swd"
	LossTruncatedMSE LossKind = "mse"
	LossTemporalMean LossKind = "avg"
)

// LossName is a parsed loss selector.
type LossName struct {
	Kind LossKind
	// Alpha is set by a gpnn_<alpha> selector.
	Alpha    float64
	HasAlpha bool
}

// ParseLossName parses gpnn, gpnn_<alpha>, swd, mse and avg.
func ParseLossName(name string) (LossName, error) {
	switch name {
	case "gpnn":
		return LossName{Kind: LossGPNN}, nil
	case "swd":
		return LossName{Kind: LossSWD}, nil
	case "mse":
		return LossName{Kind: LossTruncatedMSE}, nil
	case "avg":
		return LossName{Kind: LossTemporalMean}, nil
	}
	if rest, ok := strings.CutPrefix(name, "gpnn_"); ok {
		alpha, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return LossName{}, fmt.Errorf("bad alpha in loss name %q: %w", name, err)
		}
		return LossName{Kind: LossGPNN, Alpha: alpha, HasAlpha: true}, nil
	}
	return LossName{}, fmt.Errorf("unknown loss %q", name)
}

// ParseRou maps a robust shape setting to its alpha: cauchy is 0, mse is 2,
// abs is 1 (the pseudo-Huber member); anything else must be a number.
func ParseRou(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cauchy":
		return 0, nil
	case "mse":
		return 2, nil
	case "abs":
		return 1, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("rou %q is neither a number nor cauchy, mse or abs", s)
	}
	return v, nil
}
