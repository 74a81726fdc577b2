package director

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
	"github.com/ivlev/animcam/internal/engine"
)

// ErrInvalidScript is returned for scripts that cannot be played.
var ErrInvalidScript = errors.New("invalid script")

const ScriptVersion = "1.0"

// Event kinds.
const (
	KindMovement   = "movement"
	KindTrajectory = "trajectory"
	KindPause      = "pause"
	KindCancel     = "cancel"
	KindFrame      = "frame"
	KindFrameLost  = "frame_lost"
)

// Script is a timed list of requests replayed against the view. It stands in
// for the transport that delivers requests to a live camera.
type Script struct {
	Version      string  `yaml:"version"`
	FPS          int     `yaml:"fps,omitempty"`
	FrameByFrame *bool   `yaml:"frame_by_frame,omitempty"`
	Backdrop     string  `yaml:"backdrop,omitempty"`
	Events       []Event `yaml:"events"`
}

// Event is one request delivered At seconds after the start.
type Event struct {
	At   float64 `yaml:"at"`
	Kind string  `yaml:"kind"`

	Waypoint  *Waypoint  `yaml:"waypoint,omitempty"`
	Waypoints []Waypoint `yaml:"waypoints,omitempty"`
	// TimeBase is "wall", "frames" or empty for trajectories.
	TimeBase string `yaml:"time_base,omitempty"`
	FPS      int    `yaml:"fps,omitempty"`
	// Pause is in seconds.
	Pause float64 `yaml:"pause,omitempty"`
	Frame *Frame  `yaml:"frame,omitempty"`
}

// Vec is a point or direction written as a flow sequence.
type Vec [3]float64

func (v Vec) Vec3() mgl64.Vec3 { return mgl64.Vec3(v) }

// Waypoint is a camera goal in the fixed frame.
type Waypoint struct {
	Eye   Vec `yaml:"eye,flow"`
	Focus Vec `yaml:"focus,flow"`
	Up    Vec `yaml:"up,flow"`
	// Duration is in seconds.
	Duration float64             `yaml:"duration"`
	Speed    camera.SpeedProfile `yaml:"speed"`
}

// Frame is an attached frame update. Orientation is w, x, y, z.
type Frame struct {
	Position    Vec        `yaml:"position,flow"`
	Orientation [4]float64 `yaml:"orientation,flow"`
}

// WaypointFrom converts a movement into its script form.
func WaypointFrom(m camera.Movement) Waypoint {
	return Waypoint{
		Eye:      Vec(m.Eye),
		Focus:    Vec(m.Focus),
		Up:       Vec(m.Up),
		Duration: m.Duration.Seconds(),
		Speed:    m.Speed,
	}
}

// Movement converts the waypoint for the engine.
func (w Waypoint) Movement() camera.Movement {
	return camera.Movement{
		Pose:     camera.Pose{Eye: w.Eye.Vec3(), Focus: w.Focus.Vec3(), Up: w.Up.Vec3()},
		Duration: seconds(w.Duration),
		Speed:    w.Speed,
	}
}

// Request builds the inbox request for the event.
func (e Event) Request() (engine.Request, error) {
	switch e.Kind {
	case KindMovement:
		if e.Waypoint == nil {
			return nil, fmt.Errorf("%w: movement at %.3fs without waypoint", ErrInvalidScript, e.At)
		}
		return engine.MovementRequest{Movement: e.Waypoint.Movement()}, nil
	case KindTrajectory:
		if len(e.Waypoints) == 0 {
			return nil, fmt.Errorf("%w: trajectory at %.3fs without waypoints", ErrInvalidScript, e.At)
		}
		tb, err := parseTimeBase(e.TimeBase)
		if err != nil {
			return nil, err
		}
		tr := engine.Trajectory{TimeBase: tb, FPS: e.FPS}
		for _, w := range e.Waypoints {
			tr.Movements = append(tr.Movements, w.Movement())
		}
		return engine.TrajectoryRequest{Trajectory: tr}, nil
	case KindPause:
		return engine.PauseRequest{Duration: seconds(e.Pause)}, nil
	case KindCancel:
		return engine.CancelRequest{}, nil
	case KindFrame:
		if e.Frame == nil {
			return nil, fmt.Errorf("%w: frame update at %.3fs without frame", ErrInvalidScript, e.At)
		}
		o := e.Frame.Orientation
		return engine.FrameUpdateRequest{
			Position:    e.Frame.Position.Vec3(),
			Orientation: mgl64.Quat{W: o[0], V: mgl64.Vec3{o[1], o[2], o[3]}},
		}, nil
	case KindFrameLost:
		return engine.FrameLostRequest{}, nil
	}
	return nil, fmt.Errorf("%w: unknown event kind %q", ErrInvalidScript, e.Kind)
}

func parseTimeBase(s string) (engine.TimeBase, error) {
	switch s {
	case "":
		return engine.TimeBaseKeep, nil
	case "wall":
		return engine.TimeBaseWallClock, nil
	case "frames":
		return engine.TimeBaseFrames, nil
	}
	return engine.TimeBaseKeep, fmt.Errorf("%w: unknown time base %q", ErrInvalidScript, s)
}

// Validate checks ordering and that every event converts. Malformed
// waypoints are left to the engine, which rejects them at runtime.
func (s *Script) Validate() error {
	prev := 0.0
	for i, e := range s.Events {
		if math.IsNaN(e.At) || e.At < 0 {
			return fmt.Errorf("%w: event %d at %v", ErrInvalidScript, i, e.At)
		}
		if e.At < prev {
			return fmt.Errorf("%w: event %d at %.3fs before previous at %.3fs", ErrInvalidScript, i, e.At, prev)
		}
		prev = e.At
		if _, err := e.Request(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	if s.FPS < 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalidScript, s.FPS)
	}
	return nil
}

// Duration estimates when the script is done: the latest event plus the
// movements and pauses it starts.
func (s *Script) Duration() time.Duration {
	end := 0.0
	for _, e := range s.Events {
		t := e.At
		switch e.Kind {
		case KindMovement:
			if e.Waypoint != nil {
				t += e.Waypoint.Duration
			}
		case KindTrajectory:
			for _, w := range e.Waypoints {
				t += w.Duration
			}
		case KindPause:
			t += e.Pause
		}
		end = math.Max(end, t)
	}
	return seconds(end)
}

// Goals returns every waypoint focus point, for preview markers.
func (s *Script) Goals() []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, e := range s.Events {
		if e.Waypoint != nil {
			out = append(out, e.Waypoint.Focus.Vec3())
		}
		for _, w := range e.Waypoints {
			out = append(out, w.Focus.Vec3())
		}
	}
	return out
}

// seconds converts script seconds. Non-finite values become a negative
// duration, which the engine rejects as malformed.
func seconds(s float64) time.Duration {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return -1
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}
