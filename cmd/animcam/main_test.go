package main

import (
	"bytes"
	"context"
	"flag"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/animcam/internal/config"
	"github.com/ivlev/animcam/internal/director"
	"github.com/ivlev/animcam/internal/engine"
	"github.com/ivlev/animcam/internal/publisher"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("animcam", flag.ContinueOnError)
	fs.Int("fps", 30, "")
	fs.Bool("frame-by-frame", true, "")
	fs.String("output", "output", "")
	fs.Float64("transition", 1, "")
	fs.String("backdrop", "", "")
	return fs
}

func TestApplyFlagsOnlySetOnes(t *testing.T) {
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"-fps", "60", "-transition", "0.25"}))

	cfg := config.Default()
	cfg.OutputDir = "from-file"
	applyFlags(&cfg, fs)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, 250*time.Millisecond, cfg.Transition())
	assert.Equal(t, "from-file", cfg.OutputDir)
}

func TestApplyScriptRespectsFlags(t *testing.T) {
	off := false
	script := &director.Script{FPS: 24, FrameByFrame: &off, Backdrop: "slides.pdf"}

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"-fps", "50"}))
	cfg := config.Default()
	applyScript(&cfg, script, fs)
	assert.Equal(t, 30, cfg.FPS, "script must not override a flag")
	assert.False(t, cfg.FrameByFrame)
	assert.Equal(t, "slides.pdf", cfg.Backdrop)
}

func TestRunName(t *testing.T) {
	at := time.Date(2026, 2, 13, 1, 2, 3, 0, time.UTC)
	assert.Equal(t, "my_orbit_2026-02-13_01-02-03", runName("input/scripts/my orbit.yaml", at))
}

func TestOfflineRunWritesPoseLog(t *testing.T) {
	script, err := director.NewDirector().Orbit(mgl64.Vec3{}, 4, 2, 4, 1)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.FPS = 20
	cfg.Width, cfg.Height = 64, 48
	cfg.PublishImages = false
	require.NoError(t, cfg.Validate())

	runDir := filepath.Join(t.TempDir(), "run")
	r, err := newRun(context.Background(), cfg, script, runDir, false, log.New(&bytes.Buffer{}, "", 0))
	require.NoError(t, err)
	require.NoError(t, r.offline(context.Background(), 0))
	require.NoError(t, r.close())

	assert.True(t, r.done())
	assert.Equal(t, uint64(4), r.view.Completed())
	assert.Equal(t, engine.StateIdle, r.view.State())

	f, err := os.Open(filepath.Join(runDir, "poses.yaml"))
	require.NoError(t, err)
	defer f.Close()
	poses, err := publisher.ReadPoseLog(f)
	require.NoError(t, err)
	// One second of orbit at 20 fps, counted in frames.
	assert.Len(t, poses, 20)
	assert.Equal(t, r.pub.Counters().Poses, len(poses))
}

func TestOfflineRunWritesFrames(t *testing.T) {
	script, err := director.NewDirector().Orbit(mgl64.Vec3{}, 4, 2, 2, 0.2)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.FPS = 10
	cfg.Width, cfg.Height = 32, 32
	cfg.PublishPoses = false
	cfg.Workers = 2

	runDir := filepath.Join(t.TempDir(), "run")
	r, err := newRun(context.Background(), cfg, script, runDir, false, log.New(&bytes.Buffer{}, "", 0))
	require.NoError(t, err)
	require.NoError(t, r.offline(context.Background(), 0))
	require.NoError(t, r.close())

	frames, err := filepath.Glob(filepath.Join(runDir, "frames", "*.png"))
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestBackdropLandmarks(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	// One bright block in the top-right quarter.
	draw.Draw(img, image.Rect(130, 10, 180, 40), image.NewUniform(color.White), image.Point{}, draw.Src)
	f, err := os.Create(filepath.Join(dir, "page.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := config.Default()
	cfg.Backdrop = dir
	points, err := backdropLandmarks(cfg)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Greater(t, points[0][0], 0.0, "block is right of center")
	assert.Greater(t, points[0][1], 0.0, "block is above center")
	assert.Zero(t, points[0][2])

	cfg.Backdrop = filepath.Join(dir, "missing")
	_, err = backdropLandmarks(cfg)
	assert.Error(t, err)
}
