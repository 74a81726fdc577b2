package camera

import "github.com/go-gl/mathgl/mgl64"

// ReferenceFrame is the pose of the attached frame relative to the fixed
// frame, as last reported by the frame tracker.
type ReferenceFrame struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityFrame is an attached frame that coincides with the fixed frame.
func IdentityFrame() ReferenceFrame {
	return ReferenceFrame{Orientation: mgl64.QuatIdent()}
}

// normalized guards against zero quaternions coming from uninitialised
// messages.
func (f ReferenceFrame) normalized() mgl64.Quat {
	q := f.Orientation
	if q.Len() < epsilon {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

// ToLocal expresses a fixed-frame point in the attached frame.
func (f ReferenceFrame) ToLocal(v mgl64.Vec3) mgl64.Vec3 {
	return f.normalized().Inverse().Rotate(v.Sub(f.Position))
}

// ToFixed expresses an attached-frame point in the fixed frame.
func (f ReferenceFrame) ToFixed(v mgl64.Vec3) mgl64.Vec3 {
	return f.Position.Add(f.normalized().Rotate(v))
}

// DirToLocal rotates a fixed-frame direction into the attached frame.
func (f ReferenceFrame) DirToLocal(v mgl64.Vec3) mgl64.Vec3 {
	return f.normalized().Inverse().Rotate(v)
}

// DirToFixed rotates an attached-frame direction into the fixed frame.
func (f ReferenceFrame) DirToFixed(v mgl64.Vec3) mgl64.Vec3 {
	return f.normalized().Rotate(v)
}

// PoseToLocal converts a whole fixed-frame pose into the attached frame.
func (f ReferenceFrame) PoseToLocal(p Pose) Pose {
	return Pose{Eye: f.ToLocal(p.Eye), Focus: f.ToLocal(p.Focus), Up: f.DirToLocal(p.Up)}
}

// PoseToFixed converts a whole attached-frame pose into the fixed frame.
func (f ReferenceFrame) PoseToFixed(p Pose) Pose {
	return Pose{Eye: f.ToFixed(p.Eye), Focus: f.ToFixed(p.Focus), Up: f.DirToFixed(p.Up)}
}
