// Command patchfit fits a volume to the patch statistics of a target.
//
//	patchfit -target y.gob -out x.gob [-init x0.gob] [-mask m.gob] [-config fit.toml] ...
//	patchfit -synthetic -out x.gob ...
//
// Without -init the fit starts from uniform noise with the target's shape.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/FlavioCFOliveira/GoPatch/internal/config"
	"github.com/FlavioCFOliveira/GoPatch/internal/train"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "patchfit:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("patchfit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	targetPath := fs.String("target", "", "target volume (gob)")
	initPath := fs.String("init", "", "initial volume (gob); uniform noise when empty")
	maskPath := fs.String("mask", "", "optional one-channel mask volume (gob)")
	out := fs.String("out", "", "write the fitted volume here (gob)")
	frames := fs.Int("frames", 0, "frames of the noise initialisation; target frames when 0")
	synthetic := fs.Bool("synthetic", false, "fit a drifting texture instead of a file")
	dumpConfig := fs.Bool("dump-config", false, "print the effective settings as TOML and exit")
	var level slog.Level
	fs.TextVar(&level, "log-level", slog.LevelInfo, "log level")

	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}
	if *dumpConfig {
		return cfg.Encode(stderr)
	}
	if *out == "" {
		return errors.New("-out is required")
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	src := rand.NewPCG(cfg.Train.Seed, cfg.Train.Seed^0x9e3779b97f4a7c15)
	target, init, mask, err := inputs(*targetPath, *initPath, *maskPath, *synthetic, *frames, src)
	if err != nil {
		return err
	}

	obj, err := cfg.Objective(src)
	if err != nil {
		return err
	}
	tr, err := cfg.Trainer(obj)
	if err != nil {
		return err
	}
	tr.Callbacks = append(tr.Callbacks, train.Logger{Log: log, Interval: cfg.Train.PrintEvery})

	var csvLog *train.CSVLogger
	if cfg.Train.CSVLog != "" {
		csvLog = train.NewCSVLogger(cfg.Train.CSVLog, false)
		tr.Callbacks = append(tr.Callbacks, csvLog)
	}
	var checkpoint *train.Checkpoint
	if cfg.Train.Checkpoint != "" {
		checkpoint = train.NewCheckpoint(cfg.Train.Checkpoint)
		tr.Callbacks = append(tr.Callbacks, checkpoint)
	}
	if cfg.Train.Patience > 0 {
		tr.Callbacks = append(tr.Callbacks, train.NewEarlyStopping(cfg.Train.Patience, 0))
	}

	log.Info("fitting",
		"loss", cfg.Loss,
		"target", target.Shape(),
		"init", init.Shape(),
		"levels", cfg.Train.PyramidLevels,
		"iters", cfg.Train.Iterations)

	fitted, err := tr.Fit(ctx, init, target, mask)
	if err != nil {
		return err
	}
	if csvLog != nil && csvLog.Err() != nil {
		log.Warn("csv log incomplete", "err", csvLog.Err())
	}
	if checkpoint != nil && checkpoint.Err() != nil {
		log.Warn("checkpoint not saved", "err", checkpoint.Err())
	}
	if err := fitted.Save(*out); err != nil {
		return err
	}
	log.Info("done", "steps", tr.Steps(), "out", *out)
	return nil
}

func inputs(targetPath, initPath, maskPath string, synthetic bool, frames int, src rand.Source) (target, init, mask *volume.Volume, err error) {
	switch {
	case synthetic:
		target = volume.Drifting(3, 10, 32, 32, 0, 1, src)
	case targetPath == "":
		return nil, nil, nil, errors.New("-target is required without -synthetic")
	default:
		if target, err = volume.Load(targetPath); err != nil {
			return nil, nil, nil, fmt.Errorf("target: %w", err)
		}
	}

	if initPath != "" {
		if init, err = volume.Load(initPath); err != nil {
			return nil, nil, nil, fmt.Errorf("init: %w", err)
		}
	} else {
		if frames <= 0 {
			frames = target.Frames
		}
		init = volume.Random(1, target.Channels, frames, target.Height, target.Width, src)
	}

	if maskPath != "" {
		if mask, err = volume.Load(maskPath); err != nil {
			return nil, nil, nil, fmt.Errorf("mask: %w", err)
		}
	}
	return target, init, mask, nil
}
