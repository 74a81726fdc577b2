// Package publisher hands every engine tick to the display and, depending on
// the configuration, to pose and frame sinks.
package publisher

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animcam/internal/engine"
)

// Display shows the pose of each tick.
type Display interface {
	Show(t engine.Tick)
}

// Snapshotter renders the displayed pose. Snapshots are handed back with
// Release once every frame sink returned.
type Snapshotter interface {
	Snapshot() (*image.RGBA, error)
	Release(img *image.RGBA)
}

// PoseSink receives pose feedback.
type PoseSink interface {
	WritePose(fb PoseFeedback) error
}

// FrameSink receives rendered frames. img is only valid during the call.
type FrameSink interface {
	WriteFrame(index int, img image.Image) error
}

// FinishedSink is notified when the queue drains.
type FinishedSink interface {
	OnFinished(e engine.Event)
}

// FinishedFunc adapts a function to FinishedSink.
type FinishedFunc func(engine.Event)

func (f FinishedFunc) OnFinished(e engine.Event) { f(e) }

type Options struct {
	PublishImages bool
	PublishPoses  bool

	Display     Display
	Snapshotter Snapshotter
	PoseSinks   []PoseSink
	FrameSinks  []FrameSink
	Finished    []FinishedSink
	Logger      *log.Logger
}

// Counters summarise what was published.
type Counters struct {
	Ticks  int
	Poses  int
	Frames int
	Errors int
}

// Publisher implements engine.Emitter and engine.Observer.
type Publisher struct {
	opts     Options
	counters Counters
}

var (
	_ engine.Emitter  = (*Publisher)(nil)
	_ engine.Observer = (*Publisher)(nil)
)

func New(opts Options) *Publisher {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Publisher{opts: opts}
}

// Counters returns the totals so far.
func (p *Publisher) Counters() Counters { return p.counters }

// Emit publishes one tick. Errors from every sink are joined; the tick is
// still shown and the remaining sinks still run.
func (p *Publisher) Emit(t engine.Tick) error {
	p.counters.Ticks++
	if p.opts.Display != nil {
		p.opts.Display.Show(t)
	}

	var errs []error
	if p.opts.PublishPoses && len(p.opts.PoseSinks) > 0 {
		fb := FeedbackFrom(t)
		for _, s := range p.opts.PoseSinks {
			if err := s.WritePose(fb); err != nil {
				errs = append(errs, fmt.Errorf("publish pose: %w", err))
			}
		}
		p.counters.Poses++
	}

	if p.WantsFrame(t) {
		if err := p.publishFrame(); err != nil {
			errs = append(errs, err)
		}
	}

	p.counters.Errors += len(errs)
	return errors.Join(errs...)
}

// WantsFrame reports whether t produces an image: every tick in real-time
// mode, only ticks that consumed a frame in frame-by-frame mode.
func (p *Publisher) WantsFrame(t engine.Tick) bool {
	if !p.opts.PublishImages || p.opts.Snapshotter == nil || len(p.opts.FrameSinks) == 0 {
		return false
	}
	if t.FrameByFrame {
		return t.FrameConsumed
	}
	return true
}

func (p *Publisher) publishFrame() error {
	img, err := p.opts.Snapshotter.Snapshot()
	if err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	defer p.opts.Snapshotter.Release(img)

	index := p.counters.Frames
	p.counters.Frames++

	var errs []error
	for _, s := range p.opts.FrameSinks {
		if err := s.WriteFrame(index, img); err != nil {
			errs = append(errs, fmt.Errorf("publish frame: %w", err))
		}
	}
	return errors.Join(errs...)
}

// OnEvent forwards finished notifications.
func (p *Publisher) OnEvent(e engine.Event) {
	if e.Kind != engine.EventFinished {
		return
	}
	for _, s := range p.opts.Finished {
		s.OnFinished(e)
	}
}

// Close closes every sink that is an io.Closer, concurrently, and returns
// the first error.
func (p *Publisher) Close() error {
	var g errgroup.Group
	seen := make(map[any]bool)
	closeOnce := func(v any) {
		c, ok := v.(io.Closer)
		if !ok {
			return
		}
		// Sinks of non-comparable types cannot be map keys; they are closed
		// every time they appear.
		if reflect.TypeOf(v).Comparable() {
			if seen[v] {
				return
			}
			seen[v] = true
		}
		g.Go(c.Close)
	}
	for _, s := range p.opts.PoseSinks {
		closeOnce(s)
	}
	for _, s := range p.opts.FrameSinks {
		closeOnce(s)
	}
	return g.Wait()
}
