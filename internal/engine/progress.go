package engine

import (
	"math"
	"time"
)

// ProgressSource measures how far the active movement has progressed in
// time. The wall-clock and frame-count sources are interchangeable; the
// interpolation that consumes their output is the same for both.
type ProgressSource interface {
	// Begin resets the source for a movement starting at now.
	Begin(now time.Time)
	// Chain starts the next queued movement right where the previous one of
	// length prev ended, so consecutive movements have no timing gap.
	Chain(now time.Time, prev time.Duration)
	// Advance is called once per animated tick before Progress.
	Advance(now time.Time)
	// Pause freezes progress for d starting at now.
	Pause(now time.Time, d time.Duration)
	// Freeze holds progress until Thaw, for as long as the attached frame is
	// unavailable.
	Freeze(now time.Time)
	Thaw(now time.Time)
	// Progress returns the relative progress in time in [0,1] for a movement
	// of the given duration. Durations <= 0 are complete immediately.
	Progress(now time.Time, duration time.Duration) float64
	// FrameByFrame reports whether progress is counted in rendered frames.
	FrameByFrame() bool
}

// WallClockSource derives progress from elapsed wall time minus all pauses.
type WallClockSource struct {
	start  time.Time
	paused time.Duration

	// Open pause window [pauseStart, pauseStart+pauseLen).
	pauseStart time.Time
	pauseLen   time.Duration

	frozen     bool
	frozenFrom time.Time
}

// NewWallClockSource creates a wall-clock source.
func NewWallClockSource() *WallClockSource {
	return &WallClockSource{}
}

func (s *WallClockSource) Begin(now time.Time) {
	*s = WallClockSource{start: now}
}

func (s *WallClockSource) Chain(now time.Time, prev time.Duration) {
	s.settle(now)
	// An open pause window started after the previous movement ended, so it
	// stays in place and delays the next one.
	s.start = s.start.Add(s.paused + prev)
	s.paused = 0
}

func (s *WallClockSource) Advance(now time.Time) {
	s.settle(now)
}

func (s *WallClockSource) Pause(now time.Time, d time.Duration) {
	if d <= 0 {
		return
	}
	s.settle(now)
	if s.pauseLen > 0 {
		s.pauseLen += d
		return
	}
	s.pauseStart, s.pauseLen = now, d
}

func (s *WallClockSource) Freeze(now time.Time) {
	if s.frozen {
		return
	}
	s.frozen, s.frozenFrom = true, now
}

func (s *WallClockSource) Thaw(now time.Time) {
	if !s.frozen {
		return
	}
	s.frozen = false
	if held := now.Sub(s.frozenFrom); held > 0 {
		s.start = s.start.Add(held)
		if s.pauseLen > 0 {
			s.pauseStart = s.pauseStart.Add(held)
		}
	}
}

func (s *WallClockSource) Progress(now time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	if s.frozen {
		now = s.frozenFrom
	}
	elapsed := s.elapsed(now)
	return clampProgress(elapsed.Seconds() / duration.Seconds())
}

func (s *WallClockSource) FrameByFrame() bool { return false }

// elapsed returns wall time since start with every pause subtracted,
// including the part of an open window that has already passed.
func (s *WallClockSource) elapsed(now time.Time) time.Duration {
	e := now.Sub(s.start) - s.paused
	if s.pauseLen > 0 && now.After(s.pauseStart) {
		in := now.Sub(s.pauseStart)
		if in > s.pauseLen {
			in = s.pauseLen
		}
		e -= in
	}
	return e
}

// settle folds a finished pause window into the accumulated pause.
func (s *WallClockSource) settle(now time.Time) {
	if s.pauseLen > 0 && !now.Before(s.pauseStart.Add(s.pauseLen)) {
		s.paused += s.pauseLen
		s.pauseLen = 0
	}
}

// FrameCountSource derives progress from the number of rendered frames at a
// target frame rate, so offline rendering reproduces real-time timing.
type FrameCountSource struct {
	fps      int
	frames   int
	hold     int
	frozen   bool
	advanced bool
}

// NewFrameCountSource creates a frame-count source for fps frames per second.
func NewFrameCountSource(fps int) *FrameCountSource {
	if fps <= 0 {
		fps = 30
	}
	return &FrameCountSource{fps: fps}
}

// FPS returns the target frame rate.
func (s *FrameCountSource) FPS() int { return s.fps }

// Frames returns the frames counted for the active movement.
func (s *FrameCountSource) Frames() int { return s.frames }

func (s *FrameCountSource) Begin(time.Time) {
	s.frames, s.hold, s.frozen, s.advanced = 0, 0, false, false
}

func (s *FrameCountSource) Chain(time.Time, time.Duration) {
	s.frames = 0
}

func (s *FrameCountSource) Advance(time.Time) {
	s.advanced = false
	switch {
	case s.frozen:
	case s.hold > 0:
		s.hold--
		s.advanced = true
	default:
		s.frames++
		s.advanced = true
	}
}

// Advanced reports whether the last Advance consumed a frame, either counted
// towards progress or held for a pause. Frozen ticks consume nothing.
func (s *FrameCountSource) Advanced() bool {
	return s.advanced
}

func (s *FrameCountSource) Pause(_ time.Time, d time.Duration) {
	if d <= 0 {
		return
	}
	s.hold += int(math.Round(d.Seconds() * float64(s.fps)))
}

func (s *FrameCountSource) Freeze(time.Time) { s.frozen = true }
func (s *FrameCountSource) Thaw(time.Time)   { s.frozen = false }

func (s *FrameCountSource) Progress(_ time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return clampProgress(float64(s.frames) / (float64(s.fps) * duration.Seconds()))
}

func (s *FrameCountSource) FrameByFrame() bool { return true }

func clampProgress(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
