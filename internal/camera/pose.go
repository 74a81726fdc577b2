// Package camera holds the pose model of the animated view: eye, focus and up
// vectors, the movements that carry the camera between poses, the speed
// profiles and the attached reference frame.
package camera

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrMalformedMovement is returned for movements with non-finite coordinates
// or a negative duration.
var ErrMalformedMovement = errors.New("malformed camera movement")

const epsilon = 1e-9

// Pose is a camera placement given by an eye point, a focus point and an up
// vector.
type Pose struct {
	Eye   mgl64.Vec3
	Focus mgl64.Vec3
	Up    mgl64.Vec3
}

// DefaultPose is the placement used on reset.
func DefaultPose() Pose {
	return Pose{
		Eye:   mgl64.Vec3{5, 5, 10},
		Focus: mgl64.Vec3{0, 0, 0},
		Up:    mgl64.Vec3{0, 0, 1},
	}
}

// Look returns the vector from eye to focus.
func (p Pose) Look() mgl64.Vec3 {
	return p.Focus.Sub(p.Eye)
}

// Distance returns the distance between the eye and the focus point.
func (p Pose) Distance() float64 {
	return p.Look().Len()
}

// Orientation returns the camera-to-world rotation of a camera looking from
// eye to focus. The camera looks down its -Z axis with +Y up. Degenerate
// poses yield the identity rotation.
func (p Pose) Orientation() mgl64.Quat {
	if !p.upUsable(p.Up) {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatLookAtV(p.Eye, p.Focus, p.Up).Inverse()
}

// Finite reports whether every coordinate of p is a finite number.
func (p Pose) Finite() bool {
	return finite(p.Eye) && finite(p.Focus) && finite(p.Up)
}

// upUsable reports whether up can orient a camera looking along p.Look().
func (p Pose) upUsable(up mgl64.Vec3) bool {
	if !finite(up) || up.Len() < epsilon {
		return false
	}
	look := p.Look()
	if look.Len() < epsilon {
		return false
	}
	return look.Normalize().Cross(up.Normalize()).Len() > epsilon
}

func (p Pose) String() string {
	return fmt.Sprintf("eye=(%.3f, %.3f, %.3f) focus=(%.3f, %.3f, %.3f) up=(%.3f, %.3f, %.3f)",
		p.Eye[0], p.Eye[1], p.Eye[2],
		p.Focus[0], p.Focus[1], p.Focus[2],
		p.Up[0], p.Up[1], p.Up[2])
}

// Movement is one requested goal pose together with the time and the speed
// profile used to reach it.
type Movement struct {
	Pose
	Duration time.Duration
	Speed    SpeedProfile
}

// Validate rejects movements that must never reach the queue.
func (m Movement) Validate() error {
	if !m.Pose.Finite() {
		return fmt.Errorf("%w: non-finite coordinates (%s)", ErrMalformedMovement, m.Pose)
	}
	if m.Duration < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrMalformedMovement, m.Duration)
	}
	if !m.Speed.Valid() {
		return fmt.Errorf("%w: unknown speed profile %d", ErrMalformedMovement, uint8(m.Speed))
	}
	return nil
}

// Interpolate blends between two poses at spaceProgress s in [0,1]. Eye and
// focus move linearly; up rotates along the shortest arc so the camera does
// not roll through a shortened vector. prevUp is kept whenever the blended up
// cannot orient the camera.
func Interpolate(from, to Pose, s float64, prevUp mgl64.Vec3) Pose {
	out := Pose{
		Eye:   lerp(from.Eye, to.Eye, s),
		Focus: lerp(from.Focus, to.Focus, s),
	}
	up, ok := slerpUp(from.Up, to.Up, s)
	if !ok || !out.upUsable(up) {
		up = prevUp
	}
	out.Up = up
	return out
}

// Snap returns goal, holding prevUp when the goal's up vector is degenerate.
func Snap(goal Pose, prevUp mgl64.Vec3) Pose {
	if !goal.upUsable(goal.Up) {
		goal.Up = prevUp
	}
	return goal
}

func lerp(a, b mgl64.Vec3, s float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(s))
}

func slerpUp(a, b mgl64.Vec3, s float64) (mgl64.Vec3, bool) {
	la, lb := a.Len(), b.Len()
	if la < epsilon || lb < epsilon || !finite(a) || !finite(b) {
		return mgl64.Vec3{}, false
	}
	na, nb := a.Mul(1/la), b.Mul(1/lb)
	rot := mgl64.QuatSlerp(mgl64.QuatIdent(), mgl64.QuatBetweenVectors(na, nb), s)
	up := rot.Rotate(na).Mul(la + (lb-la)*s)
	if !finite(up) {
		return mgl64.Vec3{}, false
	}
	return up, true
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
