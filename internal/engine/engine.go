// Package engine animates the camera between queued movements. The
// AnimatedView tracks the active movement, computes per-tick progress through
// an interchangeable progress source, interpolates the pose and advances to
// the next movement when the current one completes.
package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
	"github.com/ivlev/animcam/internal/queue"
)

// ErrMalformedPause is returned for negative pause requests.
var ErrMalformedPause = errors.New("malformed pause request")

// Defaults applied by NewAnimatedView to zero Options fields.
const (
	DefaultQueueCapacity = 100
	DefaultFPS           = 30
	DefaultTransition    = time.Second
)

// State of the transition state machine.
type State int

const (
	// StateIdle: fewer than two movements queued, the camera holds its pose.
	StateIdle State = iota
	// StateTransitioning: interpolating between queue[0] and queue[1].
	StateTransitioning
	// StateCompleting: the goal was reached on this tick.
	StateCompleting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTransitioning:
		return "transitioning"
	case StateCompleting:
		return "completing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// TimeBase selects the progress source a trajectory runs on.
type TimeBase int

const (
	// TimeBaseKeep leaves the current progress source in place.
	TimeBaseKeep TimeBase = iota
	TimeBaseWallClock
	TimeBaseFrames
)

// Trajectory is a sequence of movements executed back to back from the
// current pose.
type Trajectory struct {
	Movements []camera.Movement
	TimeBase  TimeBase
	// FPS is the target frame rate for TimeBaseFrames; 0 keeps the current one.
	FPS int
}

// Tick is the outcome of one Update.
type Tick struct {
	Seq        uint64
	Dt         time.Duration
	ExternalDt time.Duration
	State      State
	// Pose is expressed in the fixed frame.
	Pose          camera.Pose
	TimeProgress  float64
	SpaceProgress float64
	FrameByFrame  bool
	// FrameConsumed is set in frame-by-frame mode when the tick counted a
	// frame or held one for a pause.
	FrameConsumed bool
	// Held is set while the attached frame is unavailable.
	Held bool
	// Completed counts the movements finished since initialisation.
	Completed uint64
}

// Animated reports whether the tick interpolated a pose.
func (t Tick) Animated() bool {
	return t.State != StateIdle && !t.Held
}

// Options configures an AnimatedView.
type Options struct {
	QueueCapacity     int
	DefaultTransition time.Duration
	FrameByFrame      bool
	FPS               int
	// InitialPose is used on initialisation and is given in the fixed frame.
	// The zero value selects camera.DefaultPose.
	InitialPose camera.Pose
	Clock       Clock
	Logger      *log.Logger
	Verbose     bool
}

// AnimatedView is the animated camera view controller.
//
// It is not safe for concurrent use: every method must run on the goroutine
// driving the ticks. Producers on other goroutines go through an Inbox.
type AnimatedView struct {
	opts  Options
	clock Clock
	log   *log.Logger

	queue     *queue.Movements
	source    ProgressSource
	animating bool

	// pose caches the last displayed pose in the attached frame.
	pose      camera.Pose
	lastFixed camera.Pose

	ref            camera.ReferenceFrame
	frameAvailable bool

	pendingPause  time.Duration
	timeProgress  float64
	spaceProgress float64

	tick      uint64
	completed uint64
	observers []Observer
}

// NewAnimatedView creates an initialised view.
func NewAnimatedView(opts Options) *AnimatedView {
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.DefaultTransition <= 0 {
		opts.DefaultTransition = DefaultTransition
	}
	if opts.InitialPose == (camera.Pose{}) {
		opts.InitialPose = camera.DefaultPose()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	v := &AnimatedView{
		opts:  opts,
		clock: opts.Clock,
		log:   opts.Logger,
		queue: queue.New(opts.QueueCapacity),
	}
	v.source = v.newSource(opts.FrameByFrame, opts.FPS)
	v.OnInitialize()
	return v
}

// Subscribe registers an observer for status events.
func (v *AnimatedView) Subscribe(o Observer) {
	v.observers = append(v.observers, o)
}

// OnInitialize puts the view in its initial state: initial pose, identity
// attached frame, empty queue.
func (v *AnimatedView) OnInitialize() {
	v.queue.Clear()
	v.animating = false
	v.ref = camera.IdentityFrame()
	v.frameAvailable = true
	v.pose = v.opts.InitialPose
	v.lastFixed = v.pose
	v.pendingPause = 0
	v.timeProgress, v.spaceProgress = 0, 0
}

// State returns the current state of the state machine.
func (v *AnimatedView) State() State {
	if v.animating && v.queue.Ready() {
		return StateTransitioning
	}
	return StateIdle
}

// TimeProgress returns the relative progress in time of the active movement.
func (v *AnimatedView) TimeProgress() float64 { return v.timeProgress }

// SpaceProgress returns the relative progress in space of the active movement.
func (v *AnimatedView) SpaceProgress() float64 { return v.spaceProgress }

// QueueLen returns the number of queued movements, start pose included.
func (v *AnimatedView) QueueLen() int { return v.queue.Len() }

// FrameByFrame reports whether progress is counted in rendered frames.
func (v *AnimatedView) FrameByFrame() bool { return v.source.FrameByFrame() }

// FPS returns the target frame rate of the frame-count source.
func (v *AnimatedView) FPS() int { return v.opts.FPS }

// DefaultTransition returns the duration used by LookAt and friends.
func (v *AnimatedView) DefaultTransition() time.Duration { return v.opts.DefaultTransition }

// CurrentPose returns the displayed pose in the fixed frame. While the
// attached frame is unavailable it returns the last good value.
func (v *AnimatedView) CurrentPose() camera.Pose {
	if !v.frameAvailable {
		return v.lastFixed
	}
	return v.ref.PoseToFixed(v.pose)
}

// Completed returns the number of movements finished since creation.
func (v *AnimatedView) Completed() uint64 { return v.completed }

// LocalPose returns the displayed pose in the attached frame.
func (v *AnimatedView) LocalPose() camera.Pose { return v.pose }

// Distance returns the distance from the eye to the focus point.
func (v *AnimatedView) Distance() float64 { return v.pose.Distance() }

// Orientation returns the camera rotation in the fixed frame.
func (v *AnimatedView) Orientation() mgl64.Quat { return v.CurrentPose().Orientation() }

// ReferenceFrame returns the last known attached frame and whether it is
// currently available.
func (v *AnimatedView) ReferenceFrame() (camera.ReferenceFrame, bool) {
	return v.ref, v.frameAvailable
}

// BeginNewTransition starts animating from the displayed pose to goal, which
// is given in the attached frame. Anything queued before is dropped.
func (v *AnimatedView) BeginNewTransition(goal camera.Movement) error {
	if err := goal.Validate(); err != nil {
		return v.reject(err)
	}

	v.queue.Clear()
	v.queue.Push(camera.Movement{Pose: v.pose, Speed: goal.Speed})
	v.queue.Push(goal)
	v.start()
	return nil
}

// CancelTransition stops any movement. The camera keeps its displayed pose.
func (v *AnimatedView) CancelTransition() {
	wasAnimating := v.animating
	v.queue.Clear()
	v.animating = false
	v.timeProgress, v.spaceProgress = 0, 0
	if wasAnimating {
		v.emit(Event{Kind: EventCancelled})
	}
}

// OnNewMovementRequest begins a transition to m, given in the fixed frame.
func (v *AnimatedView) OnNewMovementRequest(m camera.Movement) error {
	if err := m.Validate(); err != nil {
		return v.reject(err)
	}
	return v.BeginNewTransition(v.toLocal(m))
}

// OnNewTrajectoryRequest replaces the queue with the current pose followed by
// every valid movement of tr, given in the fixed frame. Invalid movements are
// skipped; a trajectory without any valid movement leaves the view untouched.
func (v *AnimatedView) OnNewTrajectoryRequest(tr Trajectory) error {
	valid := make([]camera.Movement, 0, len(tr.Movements))
	for i, m := range tr.Movements {
		if err := m.Validate(); err != nil {
			v.reject(fmt.Errorf("trajectory movement %d: %w", i, err))
			continue
		}
		valid = append(valid, v.toLocal(m))
	}
	if len(valid) == 0 {
		return v.reject(fmt.Errorf("%w: trajectory has no valid movements", camera.ErrMalformedMovement))
	}

	switch tr.TimeBase {
	case TimeBaseFrames:
		v.SetFrameByFrame(true, tr.FPS)
	case TimeBaseWallClock:
		v.SetFrameByFrame(false, 0)
	}

	v.queue.Clear()
	v.queue.Push(camera.Movement{Pose: v.pose, Speed: valid[0].Speed})
	evicted := 0
	for _, m := range valid {
		if v.queue.Push(m) {
			evicted++
		}
	}
	if evicted > 0 {
		v.log.Printf("[!] Trajectory longer than queue capacity %d: %d oldest movements dropped", v.queue.Cap(), evicted)
	}
	v.start()
	return nil
}

// OnPauseRequest freezes the animation for d. The pause takes effect on the
// next animated tick; requests made while idle wait for the next transition.
func (v *AnimatedView) OnPauseRequest(d time.Duration) error {
	if d < 0 {
		return v.reject(fmt.Errorf("%w: %s", ErrMalformedPause, d))
	}
	v.pendingPause += d
	return nil
}

// OnFrameTick is the fixed-cadence driver.
func (v *AnimatedView) OnFrameTick(dt time.Duration) Tick {
	return v.Update(dt, dt)
}

// OnReferenceFrameUpdate refreshes the attached frame. If the frame was lost,
// the held animation resumes from where it stopped.
func (v *AnimatedView) OnReferenceFrameUpdate(position mgl64.Vec3, orientation mgl64.Quat) {
	v.ref = camera.ReferenceFrame{Position: position, Orientation: orientation}
	if !v.frameAvailable {
		v.frameAvailable = true
		v.source.Thaw(v.clock.Now())
		v.emit(Event{Kind: EventFrameRestored})
	}
}

// OnReferenceFrameLost marks the attached frame as unavailable. The pose is
// held and progress frozen until the next OnReferenceFrameUpdate.
func (v *AnimatedView) OnReferenceFrameLost() {
	if !v.frameAvailable {
		return
	}
	v.lastFixed = v.ref.PoseToFixed(v.pose)
	v.frameAvailable = false
	v.source.Freeze(v.clock.Now())
	v.log.Printf("[!] Attached frame unavailable, holding pose")
	v.emit(Event{Kind: EventFrameLost})
}

// SetFrameByFrame switches between wall-clock and frame-counted progress.
// fps <= 0 keeps the configured rate. A movement in flight restarts from the
// displayed pose on the new time base.
func (v *AnimatedView) SetFrameByFrame(on bool, fps int) {
	if fps <= 0 {
		fps = v.opts.FPS
	}
	if on == v.source.FrameByFrame() && fps == v.opts.FPS {
		return
	}
	v.opts.FPS = fps
	v.source = v.newSource(on, fps)
	if !v.frameAvailable {
		v.source.Freeze(v.clock.Now())
	}
	if v.State() == StateTransitioning {
		v.reanchor()
	}
}

// Update advances the animation by one tick.
func (v *AnimatedView) Update(dt, externalDt time.Duration) Tick {
	v.tick++
	now := v.clock.Now()
	t := Tick{
		Seq:          v.tick,
		Dt:           dt,
		ExternalDt:   externalDt,
		FrameByFrame: v.source.FrameByFrame(),
	}

	if v.State() == StateIdle {
		t.State = StateIdle
		t.Pose = v.CurrentPose()
		t.Completed = v.completed
		return t
	}

	t.State = StateTransitioning
	if !v.frameAvailable {
		t.Held = true
		t.Pose = v.lastFixed
		t.TimeProgress, t.SpaceProgress = v.timeProgress, v.spaceProgress
		t.Completed = v.completed
		return t
	}

	v.pauseOnRequest(now)
	v.source.Advance(now)
	if fc, ok := v.source.(*FrameCountSource); ok {
		t.FrameConsumed = fc.Advanced()
	}

	start, goal := v.queue.Front(), v.queue.Second()
	tp := v.source.Progress(now, goal.Duration)
	sp := camera.Evaluate(tp, goal.Speed)
	if tp >= 1 {
		v.pose = camera.Snap(goal.Pose, v.pose.Up)
	} else {
		v.pose = camera.Interpolate(start.Pose, goal.Pose, sp, v.pose.Up)
	}
	v.timeProgress, v.spaceProgress = tp, sp
	t.TimeProgress, t.SpaceProgress = tp, sp

	if v.opts.Verbose {
		v.log.Printf("[>] tick %d %s t=%.4f s=%.4f %s", v.tick, goal.Speed, tp, sp, v.pose)
	}

	if tp >= 1 {
		t.State = StateCompleting
		v.complete(now, goal)
	}

	t.Pose = v.CurrentPose()
	v.lastFixed = t.Pose
	t.Completed = v.completed
	return t
}

// pauseOnRequest hands a pending pause to the progress source.
func (v *AnimatedView) pauseOnRequest(now time.Time) {
	if v.pendingPause <= 0 {
		return
	}
	v.source.Pause(now, v.pendingPause)
	v.pendingPause = 0
}

// complete drops the finished start pose and chains into the next movement if
// one is queued.
func (v *AnimatedView) complete(now time.Time, goal camera.Movement) {
	v.queue.PopFront()
	v.completed++

	if v.queue.Ready() {
		v.source.Chain(now, goal.Duration)
		v.timeProgress, v.spaceProgress = 0, 0
		v.emit(Event{Kind: EventMovementCompleted})
		v.emit(Event{Kind: EventMovementStarted})
		return
	}

	v.queue.Clear()
	v.animating = false
	v.emit(Event{Kind: EventMovementCompleted})
	v.emit(Event{Kind: EventFinished})
}

func (v *AnimatedView) start() {
	now := v.clock.Now()
	v.source.Begin(now)
	if !v.frameAvailable {
		v.source.Freeze(now)
	}
	v.animating = true
	v.timeProgress, v.spaceProgress = 0, 0
	v.emit(Event{Kind: EventMovementStarted})
}

// reanchor restarts the queued movements from the displayed pose.
func (v *AnimatedView) reanchor() {
	pending := v.queue.Slice()[1:]
	v.queue.Clear()
	v.queue.Push(camera.Movement{Pose: v.pose, Speed: pending[0].Speed})
	for _, m := range pending {
		v.queue.Push(m)
	}
	v.start()
}

func (v *AnimatedView) newSource(frames bool, fps int) ProgressSource {
	if frames {
		return NewFrameCountSource(fps)
	}
	return NewWallClockSource()
}

func (v *AnimatedView) toLocal(m camera.Movement) camera.Movement {
	m.Pose = v.ref.PoseToLocal(m.Pose)
	return m
}

func (v *AnimatedView) reject(err error) error {
	v.log.Printf("[!] Request rejected: %v", err)
	v.emit(Event{Kind: EventRejected, Err: err})
	return err
}

func (v *AnimatedView) emit(e Event) {
	e.Tick = v.tick
	if v.queue.Len() > 0 {
		e.Remaining = v.queue.Len() - 1
	}
	for _, o := range v.observers {
		o.OnEvent(e)
	}
}
