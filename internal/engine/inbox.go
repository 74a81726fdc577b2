package engine

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
)

// Request is an incoming message for the view. Requests are delivered on the
// tick goroutine when the inbox is drained.
type Request interface {
	Deliver(v *AnimatedView) error
}

// RequestFunc adapts a function to Request.
type RequestFunc func(v *AnimatedView) error

func (f RequestFunc) Deliver(v *AnimatedView) error { return f(v) }

// MovementRequest begins a transition to a single goal in the fixed frame.
type MovementRequest struct {
	Movement camera.Movement
}

func (r MovementRequest) Deliver(v *AnimatedView) error {
	return v.OnNewMovementRequest(r.Movement)
}

// TrajectoryRequest replaces the queue with a trajectory.
type TrajectoryRequest struct {
	Trajectory Trajectory
}

func (r TrajectoryRequest) Deliver(v *AnimatedView) error {
	return v.OnNewTrajectoryRequest(r.Trajectory)
}

// PauseRequest freezes the animation for Duration.
type PauseRequest struct {
	Duration time.Duration
}

func (r PauseRequest) Deliver(v *AnimatedView) error {
	return v.OnPauseRequest(r.Duration)
}

// CancelRequest stops any movement.
type CancelRequest struct{}

func (CancelRequest) Deliver(v *AnimatedView) error {
	v.CancelTransition()
	return nil
}

// FrameUpdateRequest refreshes the attached frame.
type FrameUpdateRequest struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

func (r FrameUpdateRequest) Deliver(v *AnimatedView) error {
	v.OnReferenceFrameUpdate(r.Position, r.Orientation)
	return nil
}

// FrameLostRequest reports that the attached frame cannot be looked up.
type FrameLostRequest struct{}

func (FrameLostRequest) Deliver(v *AnimatedView) error {
	v.OnReferenceFrameLost()
	return nil
}

// Inbox collects requests from any goroutine until the tick goroutine drains
// them. Post never waits for the view.
type Inbox struct {
	mu      sync.Mutex
	pending []Request
}

// NewInbox creates an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Post queues r for the next drain.
func (b *Inbox) Post(r Request) {
	b.mu.Lock()
	b.pending = append(b.pending, r)
	b.mu.Unlock()
}

// Len returns the number of requests waiting.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Drain delivers every waiting request to v in arrival order and returns the
// errors of the rejected ones. The view has already logged them.
func (b *Inbox) Drain(v *AnimatedView) []error {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	var errs []error
	for _, r := range batch {
		if err := r.Deliver(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
