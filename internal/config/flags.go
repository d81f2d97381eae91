package config

import (
	"flag"
	"fmt"
)

// BindFlags registers one flag per setting on fs, defaulting to and writing
// into cfg. Parsing again after replacing *cfg reapplies explicit flags.
func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Loss, "loss", cfg.Loss, "loss: gpnn, gpnn_<alpha>, swd, mse or avg")
	fs.IntVar(&cfg.PatchSize, "patch-size", cfg.PatchSize, "spatial patch size")
	fs.IntVar(&cfg.TemporalPatchSize, "temporal-patch-size", cfg.TemporalPatchSize, "temporal patch size")
	fs.IntVar(&cfg.Stride, "stride", cfg.Stride, "spatial stride")
	fs.IntVar(&cfg.TemporalStride, "temporal-stride", cfg.TemporalStride, "temporal stride")
	fs.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "contextual normalisation, > 100 disables")
	fs.StringVar(&cfg.Rou, "rou", cfg.Rou, "robust shape: a number, cauchy, mse or abs")
	fs.Float64Var(&cfg.Scaling, "scaling", cfg.Scaling, "robust residual scale")
	fs.TextVar(&cfg.DistFn, "dist-fn", cfg.DistFn, "patch distance: mse or ssim")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "matcher chunk size")
	fs.TextVar(&cfg.Scope, "scope", cfg.Scope, "match scope: site or global")
	fs.IntVar(&cfg.NumProj, "num-proj", cfg.NumProj, "SWD projections")
	fs.IntVar(&cfg.MaskFactor, "mask-factor", cfg.MaskFactor, "SWD repeats of masked target patches")

	t := &cfg.Train
	fs.IntVar(&t.Iterations, "iters", t.Iterations, "iterations per pyramid level")
	fs.StringVar(&t.Optimizer, "optimizer", t.Optimizer, "adam or sgd")
	fs.Float64Var(&t.LRate, "lrate", t.LRate, "learning rate")
	fs.IntVar(&t.LRateDecay, "lrate-decay", t.LRateDecay, "10x learning rate decay period, in 1000 steps")
	fs.IntVar(&t.RefreshEvery, "refresh-every", t.RefreshEvery, "recompute correspondences every n steps")
	fs.IntVar(&t.PrintEvery, "print-every", t.PrintEvery, "log every n steps")
	fs.IntVar(&t.Patience, "patience", t.Patience, "early stopping patience, 0 disables")
	fs.IntVar(&t.PyramidLevels, "pyramid-levels", t.PyramidLevels, "coarse to fine levels")
	fs.Float64Var(&t.PyramidFactor, "pyramid-factor", t.PyramidFactor, "spatial scale between levels")
	fs.StringVar(&t.Activation, "activation", t.Activation, "signal parameterisation: sigmoid or none")
	fs.Func("seed", fmt.Sprintf("random seed (default %d)", t.Seed), func(s string) error {
		_, err := fmt.Sscan(s, &t.Seed)
		return err
	})
	fs.StringVar(&t.CSVLog, "csv-log", t.CSVLog, "write per-step losses to this CSV file")
	fs.StringVar(&t.Checkpoint, "checkpoint", t.Checkpoint, "save the best full resolution signal here")
}

// Parse binds the settings to fs and parses args. When -config names a file,
// it is loaded over the defaults and the explicit flags are applied on top.
// The result is validated.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()
	BindFlags(fs, &cfg)
	path := fs.String("config", "", "TOML settings file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *path != "" {
		loaded, err := Load(*path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
		if err := fs.Parse(args); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
