package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClockProgress(t *testing.T) {
	s := NewWallClockSource()
	s.Begin(t0)
	assert.False(t, s.FrameByFrame())
	assert.Equal(t, 0.0, s.Progress(t0, time.Second))
	assert.InDelta(t, 0.25, s.Progress(t0.Add(250*time.Millisecond), time.Second), 1e-12)
	assert.Equal(t, 1.0, s.Progress(t0.Add(3*time.Second), time.Second))
	assert.Equal(t, 0.0, s.Progress(t0.Add(-time.Second), time.Second))
	assert.Equal(t, 1.0, s.Progress(t0, 0))
}

func TestWallClockPausesAccumulate(t *testing.T) {
	s := NewWallClockSource()
	s.Begin(t0)
	s.Pause(t0, time.Second)
	s.Pause(t0.Add(500*time.Millisecond), time.Second)

	// The second request extends the open window to two seconds.
	at := t0.Add(2 * time.Second)
	s.Advance(at)
	assert.Equal(t, 0.0, s.Progress(at, time.Second))

	at = t0.Add(2500 * time.Millisecond)
	s.Advance(at)
	assert.InDelta(t, 0.5, s.Progress(at, time.Second), 1e-12)
}

func TestWallClockFreezeThaw(t *testing.T) {
	s := NewWallClockSource()
	s.Begin(t0)
	s.Freeze(t0.Add(time.Second))
	assert.InDelta(t, 0.5, s.Progress(t0.Add(5*time.Second), 2*time.Second), 1e-12)

	s.Thaw(t0.Add(5 * time.Second))
	assert.InDelta(t, 0.75, s.Progress(t0.Add(5500*time.Millisecond), 2*time.Second), 1e-12)
}

func TestFrameCountProgress(t *testing.T) {
	s := NewFrameCountSource(0)
	assert.Equal(t, 30, s.FPS())
	assert.True(t, s.FrameByFrame())

	s.Begin(t0)
	for i := 0; i < 15; i++ {
		s.Advance(t0)
	}
	assert.Equal(t, 15, s.Frames())
	assert.InDelta(t, 0.5, s.Progress(t0, time.Second), 1e-12)

	s.Freeze(t0)
	s.Advance(t0)
	assert.False(t, s.Advanced())
	assert.Equal(t, 15, s.Frames())
	s.Thaw(t0)

	s.Pause(t0, 100*time.Millisecond)
	for i := 0; i < 3; i++ {
		s.Advance(t0)
		assert.True(t, s.Advanced())
	}
	assert.Equal(t, 15, s.Frames())
	s.Advance(t0)
	assert.Equal(t, 16, s.Frames())

	s.Chain(t0, time.Second)
	assert.Equal(t, 0.0, s.Progress(t0, time.Second))
}
