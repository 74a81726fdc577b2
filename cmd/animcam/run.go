package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/animcam/internal/config"
	"github.com/ivlev/animcam/internal/director"
	"github.com/ivlev/animcam/internal/engine"
	"github.com/ivlev/animcam/internal/publisher"
	"github.com/ivlev/animcam/internal/renderer"
	"github.com/ivlev/animcam/internal/source"
	"github.com/ivlev/animcam/internal/system"
	"github.com/ivlev/animcam/internal/video"
)

// run wires one script playback: player -> inbox -> view -> publisher.
type run struct {
	cfg    config.Config
	log    *log.Logger
	clock  *engine.ManualClock
	view   *engine.AnimatedView
	inbox  *engine.Inbox
	runner *engine.Runner
	player *director.Player
	pub    *publisher.Publisher

	backdrops *source.Backdrops
	monitor   *system.Monitor
}

func newRun(ctx context.Context, cfg config.Config, script *director.Script, runDir string, realtime bool, logger *log.Logger) (*run, error) {
	r := &run{cfg: cfg, log: logger}
	var clock engine.Clock = engine.SystemClock{}
	if !realtime {
		r.clock = engine.NewManualClock(time.Now())
		clock = r.clock
	}

	if m, err := system.NewMonitor(); err == nil {
		r.monitor = m
	} else {
		logger.Printf("[!] Statistics unavailable: %v", err)
	}

	ropts := renderer.Options{
		Width:  cfg.Width,
		Height: cfg.Height,
		HUD:    true,
		Stamp:  cfg.StampFrames,
	}
	if cfg.Backdrop != "" {
		path := cfg.Backdrop
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			if latest, err := system.FindLatest(path, ".pdf"); err == nil {
				path = latest
			}
		}
		src, err := source.Open(path)
		if err != nil {
			return nil, fmt.Errorf("backdrop: %w", err)
		}
		r.backdrops = source.NewBackdrops(src, cfg.DPI, cfg.Width, cfg.Height)
		ropts.Backdrop = r.backdrops
		logger.Printf("[*] Backdrop: %s (%d pages)", path, r.backdrops.PageCount())
	}
	rend := renderer.New(ropts)
	rend.SetMarkers(script.Goals())

	popts := publisher.Options{
		PublishImages: cfg.PublishImages,
		PublishPoses:  cfg.PublishPoses,
		Display:       rend,
		Snapshotter:   rend,
		Logger:        logger,
	}
	if cfg.PublishImages || cfg.PublishPoses {
		if err := os.MkdirAll(runDir, 0755); err != nil {
			return nil, err
		}
	}
	if cfg.PublishImages {
		pngs, err := publisher.NewPNGWriter(filepath.Join(runDir, "frames"), cfg.Workers)
		if err != nil {
			return nil, err
		}
		popts.FrameSinks = append(popts.FrameSinks, pngs)
	}
	if cfg.VideoOutput != "" {
		enc, err := newEncoder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		popts.FrameSinks = append(popts.FrameSinks, enc)
		popts.PublishImages = true
	}
	if cfg.PublishPoses {
		poses, err := publisher.CreatePoseLog(filepath.Join(runDir, "poses.yaml"))
		if err != nil {
			return nil, err
		}
		popts.PoseSinks = append(popts.PoseSinks, poses)
	}
	popts.Finished = append(popts.Finished, publisher.FinishedFunc(func(e engine.Event) {
		logger.Printf("[+] Queue drained at tick %d", e.Tick)
	}))
	r.pub = publisher.New(popts)

	r.view = engine.NewAnimatedView(engine.Options{
		QueueCapacity:     cfg.QueueCapacity,
		DefaultTransition: cfg.Transition(),
		FrameByFrame:      cfg.FrameByFrame,
		FPS:               cfg.FPS,
		Clock:             clock,
		Logger:            logger,
		Verbose:           cfg.Verbose,
	})
	r.view.Subscribe(r.pub)

	r.inbox = engine.NewInbox()
	r.player = director.NewPlayer(script, logger)
	r.runner = engine.NewRunner(r.view, r.inbox)
	r.runner.Emitter = r.pub
	r.runner.Producers = []engine.Producer{r.player}
	return r, nil
}

func newEncoder(ctx context.Context, cfg config.Config) (*video.FFmpegEncoder, error) {
	encoder := cfg.VideoEncoder
	if encoder == "" {
		encoder, _ = system.GetBestH264Encoder()
		if encoder != "libx264" {
			fmt.Printf("[*] Hardware acceleration: %s\n", encoder)
		}
	}
	quality := cfg.Quality
	if quality == 0 {
		quality = system.DefaultQuality(encoder)
	}
	return video.NewFFmpegEncoder(ctx, video.Params{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Encoder: encoder,
		Quality: quality,
		Output:  cfg.VideoOutput,
	})
}

// done reports whether the script is exhausted and the camera has settled.
func (r *run) done() bool {
	return r.player.Done() && r.inbox.Len() == 0 && r.view.State() == engine.StateIdle
}

// frameBudget bounds an offline run at four times the script length.
func (r *run) frameBudget(script time.Duration) int {
	return int(4*script.Seconds()*float64(r.cfg.FPS)) + 10*r.cfg.FPS
}

func (r *run) offline(ctx context.Context, maxFrames int) error {
	if r.clock == nil {
		return errors.New("offline run needs a manual clock")
	}
	if maxFrames <= 0 {
		maxFrames = r.frameBudget(r.scriptDuration())
	}
	n, err := r.runner.RunOffline(ctx, r.clock, r.cfg.FPS, maxFrames, func(engine.Tick) bool {
		return r.done()
	})
	if err != nil {
		return err
	}
	if !r.done() {
		r.log.Printf("[!] Stopped after %d ticks before the script finished", n)
	}
	return nil
}

// realtime drives the runner from a ticker against the wall clock until the
// script is done.
func (r *run) realtime(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.frameBudget(r.scriptDuration())/r.cfg.FPS)*time.Second)
	defer cancel()
	r.runner.Producers = append(r.runner.Producers, engine.ProducerFunc(func(time.Duration, *engine.Inbox) {
		if r.done() {
			cancel()
		}
	}))

	err := r.runner.Run(ctx, r.cfg.FPS)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (r *run) scriptDuration() time.Duration {
	return r.player.Script().Duration()
}

func (r *run) printStats(ctx context.Context) {
	if r.monitor == nil {
		return
	}
	s, err := r.monitor.Sample(ctx)
	if err != nil {
		r.log.Printf("[!] Statistics: %v", err)
	}
	fmt.Printf("[*] %s uptime=%s\n", s, r.monitor.Uptime().Round(time.Millisecond))
}

func (r *run) close() error {
	err := r.pub.Close()
	if r.backdrops != nil {
		err = errors.Join(err, r.backdrops.Close())
	}
	return err
}
