package camera

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestMovementValidate(t *testing.T) {
	ok := Movement{Pose: DefaultPose(), Duration: time.Second, Speed: Wave}
	assert.NoError(t, ok.Validate())

	zero := ok
	zero.Duration = 0
	assert.NoError(t, zero.Validate())

	negative := ok
	negative.Duration = -time.Millisecond
	assert.True(t, errors.Is(negative.Validate(), ErrMalformedMovement))

	nan := ok
	nan.Eye = mgl64.Vec3{math.NaN(), 0, 0}
	assert.ErrorIs(t, nan.Validate(), ErrMalformedMovement)

	inf := ok
	inf.Up = mgl64.Vec3{0, math.Inf(1), 0}
	assert.ErrorIs(t, inf.Validate(), ErrMalformedMovement)

	unknown := ok
	unknown.Speed = SpeedProfile(9)
	assert.ErrorIs(t, unknown.Validate(), ErrMalformedMovement)
}

func TestInterpolateLinearEyeFocus(t *testing.T) {
	from := Pose{Eye: mgl64.Vec3{0, 0, 0}, Focus: mgl64.Vec3{0, 0, -1}, Up: mgl64.Vec3{0, 1, 0}}
	to := Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{2, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}

	got := Interpolate(from, to, 0.5, from.Up)
	assert.True(t, got.Eye.ApproxEqual(mgl64.Vec3{0, 0, 2.5}))
	assert.True(t, got.Focus.ApproxEqual(mgl64.Vec3{1, 0, -0.5}))
	assert.True(t, got.Up.ApproxEqual(mgl64.Vec3{0, 1, 0}))
}

func TestInterpolateUpIsSpherical(t *testing.T) {
	from := Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}
	to := from
	to.Up = mgl64.Vec3{1, 0, 0}

	got := Interpolate(from, to, 0.5, from.Up)
	// A linear blend would shrink to length ~0.707; the arc keeps unit length.
	assert.InDelta(t, 1.0, got.Up.Len(), 1e-9)
	assert.InDelta(t, math.Sqrt2/2, got.Up[0], 1e-9)
	assert.InDelta(t, math.Sqrt2/2, got.Up[1], 1e-9)
}

func TestInterpolateDegenerateHoldsPreviousUp(t *testing.T) {
	prev := mgl64.Vec3{0, 1, 0}

	// Eye and focus coincide for the whole movement.
	from := Pose{Eye: mgl64.Vec3{1, 1, 1}, Focus: mgl64.Vec3{1, 1, 1}, Up: mgl64.Vec3{0, 0, 1}}
	to := Pose{Eye: mgl64.Vec3{1, 1, 1}, Focus: mgl64.Vec3{1, 1, 1}, Up: mgl64.Vec3{1, 0, 0}}
	got := Interpolate(from, to, 0.3, prev)
	assert.Equal(t, prev, got.Up)
	assert.True(t, got.Finite())

	// Zero-length up on the goal.
	to = Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{0, 0, 0}}
	from = Pose{Eye: mgl64.Vec3{0, 0, 6}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}
	got = Interpolate(from, to, 0.5, prev)
	assert.Equal(t, prev, got.Up)

	// Up parallel to the look direction.
	to.Up = mgl64.Vec3{0, 0, 1}
	assert.Equal(t, prev, Snap(to, prev).Up)
}

func TestInterpolateOppositeUpStaysFinite(t *testing.T) {
	from := Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}
	to := from
	to.Up = mgl64.Vec3{0, -1, 0}

	for i := 0; i <= 10; i++ {
		got := Interpolate(from, to, float64(i)/10, from.Up)
		assert.True(t, got.Finite(), "step %d produced %s", i, got)
	}
}

func TestReferenceFrameRoundTrip(t *testing.T) {
	frame := ReferenceFrame{
		Position:    mgl64.Vec3{1, 2, 3},
		Orientation: mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}),
	}

	local := frame.ToLocal(mgl64.Vec3{1, 3, 3})
	assert.True(t, local.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9), "got %v", local)
	assert.True(t, frame.ToFixed(local).ApproxEqualThreshold(mgl64.Vec3{1, 3, 3}, 1e-9))

	up := frame.DirToLocal(mgl64.Vec3{0, 1, 0})
	assert.True(t, up.ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9), "got %v", up)

	p := DefaultPose()
	back := frame.PoseToFixed(frame.PoseToLocal(p))
	assert.True(t, back.Eye.ApproxEqualThreshold(p.Eye, 1e-9))
	assert.True(t, back.Up.ApproxEqualThreshold(p.Up, 1e-9))

	// A zero quaternion is treated as identity.
	var empty ReferenceFrame
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, empty.ToFixed(mgl64.Vec3{4, 5, 6}))
}

func TestPoseDistanceAndOrientation(t *testing.T) {
	p := Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 1, 0}}
	assert.InDelta(t, 5.0, p.Distance(), 1e-12)

	side := Pose{Eye: mgl64.Vec3{0, 0, 0}, Focus: mgl64.Vec3{3, 0, 0}, Up: mgl64.Vec3{0, 0, 1}}
	q := side.Orientation()
	assert.True(t, q.Rotate(mgl64.Vec3{0, 0, -1}).ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9))
	assert.True(t, q.Rotate(mgl64.Vec3{0, 1, 0}).ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9))

	degenerate := Pose{Up: mgl64.Vec3{0, 1, 0}}
	assert.Equal(t, mgl64.QuatIdent(), degenerate.Orientation())
}
