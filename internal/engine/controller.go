package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
)

// ViewController is a camera behaviour that the host can switch between.
type ViewController interface {
	OnInitialize()
	Update(dt, externalDt time.Duration) Tick
	Reset()
	// Mimic takes over the pose of source immediately.
	Mimic(source ViewController)
	// TransitionFrom starts at the pose of previous and animates to this
	// controller's own pose.
	TransitionFrom(previous ViewController)
	CurrentPose() camera.Pose
}

var (
	_ ViewController = (*AnimatedView)(nil)
	_ ViewController = (*StaticView)(nil)
)

// Reset cancels any movement and jumps to the default pose.
func (v *AnimatedView) Reset() {
	v.CancelTransition()
	v.pose = v.ref.PoseToLocal(camera.DefaultPose())
}

// Mimic cancels any movement and takes over the pose of source.
func (v *AnimatedView) Mimic(source ViewController) {
	v.CancelTransition()
	v.pose = v.ref.PoseToLocal(source.CurrentPose())
}

// TransitionFrom animates from the pose of previous back to the pose this
// view currently shows, over the default transition time.
func (v *AnimatedView) TransitionFrom(previous ViewController) {
	target := v.pose
	v.Mimic(previous)
	if err := v.BeginNewTransition(v.defaultMovement(target)); err != nil {
		v.log.Printf("[!] Transition from previous view: %v", err)
	}
}

// LookAt turns the camera towards point, given in the fixed frame.
func (v *AnimatedView) LookAt(point mgl64.Vec3) error {
	goal := v.pose
	goal.Focus = v.ref.ToLocal(point)
	return v.BeginNewTransition(v.defaultMovement(goal))
}

// OrbitTo moves the eye to point, given in the fixed frame, keeping the focus.
func (v *AnimatedView) OrbitTo(point mgl64.Vec3) error {
	goal := v.pose
	goal.Eye = v.ref.ToLocal(point)
	return v.BeginNewTransition(v.defaultMovement(goal))
}

// MoveEyeWithFocusTo moves the eye to point, given in the fixed frame,
// keeping the viewing direction.
func (v *AnimatedView) MoveEyeWithFocusTo(point mgl64.Vec3) error {
	goal := v.pose
	eye := v.ref.ToLocal(point)
	goal.Focus = goal.Focus.Add(eye.Sub(goal.Eye))
	goal.Eye = eye
	return v.BeginNewTransition(v.defaultMovement(goal))
}

// MoveFocusAndEye translates eye and focus along the camera axes
// (x right, y up, z backwards). It cancels any movement.
func (v *AnimatedView) MoveFocusAndEye(delta mgl64.Vec3) {
	v.CancelTransition()
	shift := v.pose.Orientation().Rotate(delta)
	v.pose.Eye = v.pose.Eye.Add(shift)
	v.pose.Focus = v.pose.Focus.Add(shift)
}

// MoveEye translates only the eye along the camera axes. It cancels any
// movement.
func (v *AnimatedView) MoveEye(delta mgl64.Vec3) {
	v.CancelTransition()
	v.pose.Eye = v.pose.Eye.Add(v.pose.Orientation().Rotate(delta))
}

// YawPitchRoll applies a body-fixed rotation sequence and orbits the eye
// around the focus point accordingly. Only accurate for small angles.
func (v *AnimatedView) YawPitchRoll(yaw, pitch, roll float64) {
	v.CancelTransition()
	q := v.pose.Orientation()
	change := mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0})).
		Mul(mgl64.QuatRotate(roll, mgl64.Vec3{0, 0, 1}))
	next := q.Mul(change).Normalize()

	distance := v.pose.Distance()
	v.pose.Eye = v.pose.Focus.Add(next.Rotate(mgl64.Vec3{0, 0, 1}).Mul(distance))
	if roll != 0 {
		v.pose.Up = next.Rotate(mgl64.Vec3{0, 1, 0}).Mul(v.pose.Up.Len())
	}
}

func (v *AnimatedView) defaultMovement(goal camera.Pose) camera.Movement {
	return camera.Movement{Pose: goal, Duration: v.opts.DefaultTransition, Speed: camera.Wave}
}

// StaticView is a controller that holds a fixed pose.
type StaticView struct {
	initial camera.Pose
	pose    camera.Pose
	ticks   uint64
}

// NewStaticView creates a view fixed at pose.
func NewStaticView(pose camera.Pose) *StaticView {
	return &StaticView{initial: pose, pose: pose}
}

func (s *StaticView) OnInitialize() { s.pose = s.initial }

func (s *StaticView) Update(dt, externalDt time.Duration) Tick {
	s.ticks++
	return Tick{Seq: s.ticks, Dt: dt, ExternalDt: externalDt, State: StateIdle, Pose: s.pose}
}

func (s *StaticView) Reset() { s.pose = camera.DefaultPose() }

func (s *StaticView) Mimic(source ViewController) { s.pose = source.CurrentPose() }

// TransitionFrom jumps: a static view does not animate.
func (s *StaticView) TransitionFrom(ViewController) {}

func (s *StaticView) CurrentPose() camera.Pose { return s.pose }
