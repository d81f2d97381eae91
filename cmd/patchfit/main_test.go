package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioCFOliveira/GoPatch/internal/config"
	"github.com/FlavioCFOliveira/GoPatch/internal/train"
	"github.com/FlavioCFOliveira/GoPatch/internal/volume"
)

func TestRunFitsFile(t *testing.T) {
	dir := t.TempDir()
	targetPath := filepath.Join(dir, "target.gob")
	out := filepath.Join(dir, "out.gob")
	csvPath := filepath.Join(dir, "fit.csv")
	target := volume.Drifting(3, 5, 10, 10, 0, 1, rand.NewPCG(1, 2))
	require.NoError(t, target.Save(targetPath))

	var stderr bytes.Buffer
	args := []string{
		"-target", targetPath, "-out", out, "-frames", "4",
		"-loss", "gpnn", "-patch-size", "3", "-temporal-patch-size", "2", "-stride", "1", "-temporal-stride", "1",
		"-iters", "6", "-lrate", "0.05", "-refresh-every", "2", "-pyramid-levels", "2",
		"-print-every", "3", "-csv-log", csvPath,
	}
	require.NoError(t, run(context.Background(), args, &stderr), stderr.String())

	fitted, err := volume.Load(out)
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{Batch: 1, Channels: 3, Frames: 4, Height: 10, Width: 10}, fitted.Shape())

	steps, err := train.ReadCSVLog(csvPath)
	require.NoError(t, err)
	assert.Len(t, steps, 12)
	assert.Contains(t, stderr.String(), "msg=done")
}

func TestRunSyntheticSWDWithCheckpoint(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.gob")
	best := filepath.Join(dir, "best.gob")

	var stderr bytes.Buffer
	args := []string{
		"-synthetic", "-out", out, "-loss", "swd", "-num-proj", "8",
		"-iters", "3", "-lrate", "0.05", "-checkpoint", best, "-patience", "10",
	}
	require.NoError(t, run(context.Background(), args, &stderr), stderr.String())

	saved, err := volume.Load(best)
	require.NoError(t, err)
	fitted, err := volume.Load(out)
	require.NoError(t, err)
	assert.True(t, saved.SameShape(fitted))
}

func TestRunDumpConfig(t *testing.T) {
	var stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-dump-config", "-loss", "avg"}, &stderr))

	cfg, err := config.Decode(&stderr)
	require.NoError(t, err)
	assert.Equal(t, "avg", cfg.Loss)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stderr bytes.Buffer
	args := []string{"-synthetic", "-out", filepath.Join(t.TempDir(), "out.gob"), "-loss", "mse"}
	assert.ErrorIs(t, run(ctx, args, &stderr), context.Canceled)
}

func TestRunErrors(t *testing.T) {
	var stderr bytes.Buffer
	ctx := context.Background()
	assert.Error(t, run(ctx, []string{"-synthetic"}, &stderr), "-out is required")
	assert.Error(t, run(ctx, []string{"-out", "x.gob"}, &stderr), "-target is required")
	assert.Error(t, run(ctx, []string{"-synthetic", "-out", "x.gob", "-optimizer", "lbfgs"}, &stderr))
}
