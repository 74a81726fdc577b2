package engine

import (
	"context"
	"log"
	"time"

	"github.com/ivlev/animcam/internal/camera"
)

// FrameTracker looks up the attached frame. It is queried at the start of
// every step so the tick never interpolates against a stale frame.
type FrameTracker interface {
	Lookup() (camera.ReferenceFrame, bool)
}

// Producer posts requests that are due at the given elapsed run time.
type Producer interface {
	Produce(elapsed time.Duration, inbox *Inbox)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(elapsed time.Duration, inbox *Inbox)

func (f ProducerFunc) Produce(elapsed time.Duration, inbox *Inbox) { f(elapsed, inbox) }

// Emitter receives every tick after the update.
type Emitter interface {
	Emit(t Tick) error
}

// Runner drives an AnimatedView: each step drains the inbox, refreshes the
// attached frame, updates the view and hands the tick to the emitter.
type Runner struct {
	View      *AnimatedView
	Inbox     *Inbox
	Tracker   FrameTracker
	Emitter   Emitter
	Producers []Producer
	Logger    *log.Logger

	origin time.Time
	steps  uint64
}

// NewRunner creates a runner whose elapsed time starts now on the view clock.
func NewRunner(view *AnimatedView, inbox *Inbox) *Runner {
	return &Runner{
		View:   view,
		Inbox:  inbox,
		Logger: view.log,
		origin: view.clock.Now(),
	}
}

// Elapsed returns the run time on the view clock.
func (r *Runner) Elapsed() time.Duration {
	return r.View.clock.Now().Sub(r.origin)
}

// Steps returns the number of completed steps.
func (r *Runner) Steps() uint64 { return r.steps }

// Step runs one tick. A sink error is logged and returned, the tick itself
// has already been applied.
func (r *Runner) Step(dt time.Duration) (Tick, error) {
	r.produce(r.Elapsed())
	r.Inbox.Drain(r.View)
	return r.advance(dt)
}

func (r *Runner) produce(elapsed time.Duration) {
	for _, p := range r.Producers {
		p.Produce(elapsed, r.Inbox)
	}
}

// advance refreshes the attached frame, updates the view and emits the tick.
func (r *Runner) advance(dt time.Duration) (Tick, error) {
	if r.Tracker != nil {
		if f, ok := r.Tracker.Lookup(); ok {
			r.View.OnReferenceFrameUpdate(f.Position, f.Orientation)
		} else {
			r.View.OnReferenceFrameLost()
		}
	}

	tick := r.View.OnFrameTick(dt)
	r.steps++

	if r.Emitter != nil {
		if err := r.Emitter.Emit(tick); err != nil {
			r.Logger.Printf("[!] Tick %d: %v", tick.Seq, err)
			return tick, err
		}
	}
	return tick, nil
}

// Run ticks against the view clock at fps until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	last := r.View.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := r.View.clock.Now()
			r.Step(now.Sub(last))
			last = now
		}
	}
}

// RunOffline steps clock by exact frame intervals, frame k at origin +
// k/fps, until stop reports true, maxFrames steps were taken (0 means no
// limit) or ctx is cancelled. It returns the number of steps taken.
//
// Requests due on frame k are delivered at the previous frame boundary, so
// frame k covers one interval of the new movement on either time base and
// wall-clock progress matches frame-counted progress tick for tick.
func (r *Runner) RunOffline(ctx context.Context, clock *ManualClock, fps, maxFrames int, stop func(Tick) bool) (int, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	period := time.Second / time.Duration(fps)
	// Floor division keeps whole-second spans exact across frame -1.
	frameTime := func(k int) time.Duration {
		ns := int64(k) * int64(time.Second)
		q := ns / int64(fps)
		if ns%int64(fps) != 0 && ns < 0 {
			q--
		}
		return time.Duration(q)
	}

	for k := 0; maxFrames <= 0 || k < maxFrames; k++ {
		if err := ctx.Err(); err != nil {
			return k, err
		}
		r.produce(frameTime(k))
		clock.Set(r.origin.Add(frameTime(k - 1)))
		r.Inbox.Drain(r.View)
		clock.Set(r.origin.Add(frameTime(k)))

		tick, _ := r.advance(period)
		if stop != nil && stop(tick) {
			return k + 1, nil
		}
	}
	return maxFrames, nil
}
