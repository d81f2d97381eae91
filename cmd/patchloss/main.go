// Command patchloss evaluates a patch loss between two volumes.
//
//	patchloss -source x.gob -target y.gob [-mask m.gob] [-loss gpnn_0.005] ...
//	patchloss -synthetic [-loss swd] ...
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/FlavioCFOliveira/GoPatch/internal/config"
	"github.com/FlavioCFOliveira/GoPatch/internal/loss"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "patchloss:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("patchloss", flag.ContinueOnError)
	fs.SetOutput(stderr)
	source := fs.String("source", "", "source volume (gob)")
	target := fs.String("target", "", "target volume (gob)")
	maskPath := fs.String("mask", "", "optional one-channel mask volume (gob)")
	synthetic := fs.Bool("synthetic", false, "compare two drifting textures instead of files")
	var level slog.Level
	fs.TextVar(&level, "log-level", slog.LevelInfo, "log level")

	cfg, err := config.Parse(fs, args)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	src := rand.NewPCG(cfg.Train.Seed, cfg.Train.Seed^0x9e3779b97f4a7c15)
	var x, y, mask *volume.Volume
	if *synthetic {
		x = volume.Drifting(3, 8, 32, 32, 0, 1, src)
		y = volume.Drifting(3, 10, 32, 32, 1, 0, src)
	} else {
		if *source == "" || *target == "" {
			return errors.New("-source and -target are required without -synthetic")
		}
		if x, err = volume.Load(*source); err != nil {
			return fmt.Errorf("source: %w", err)
		}
		if y, err = volume.Load(*target); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	if *maskPath != "" {
		if mask, err = volume.Load(*maskPath); err != nil {
			return fmt.Errorf("mask: %w", err)
		}
	}
	log.Debug("volumes", "source", x.Shape(), "target", y.Shape(), "masked", mask != nil)

	l, err := evaluate(cfg, x, y, mask, src, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %g\n", cfg.Loss, l)
	return nil
}

func evaluate(cfg config.Config, x, y, mask *volume.Volume, src rand.Source, log *slog.Logger) (float64, error) {
	name, err := config.ParseLossName(cfg.Loss)
	if err != nil {
		return 0, err
	}
	switch name.Kind {
	case config.LossGPNN:
		g, err := cfg.GPNN()
		if err != nil {
			return 0, err
		}
		l, m, err := g.Forward(x, y, nil, false)
		if err != nil {
			return 0, err
		}
		log.Info("matched", "patches", len(m.Correspondence), "alpha", g.Alpha, "metric", g.Metric, "scope", g.Scope)
		return l, nil
	case config.LossSWD:
		return cfg.SWD(src).Forward(x, y, mask)
	case config.LossTruncatedMSE:
		return loss.TruncatedMSE(x, y)
	default:
		return loss.TemporalMean(x, y)
	}
}
