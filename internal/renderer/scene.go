package renderer

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
)

const (
	nearPlane = 0.05
	farPlane  = 1000.0
)

// Segment is a 3D line of the preview scene.
type Segment struct {
	A, B  mgl64.Vec3
	Color color.RGBA
}

var (
	gridColor  = color.RGBA{70, 70, 90, 255}
	axisX      = color.RGBA{230, 70, 70, 255}
	axisY      = color.RGBA{70, 200, 90, 255}
	axisZ      = color.RGBA{80, 120, 240, 255}
	cubeColor  = color.RGBA{235, 235, 235, 255}
	focusColor = color.RGBA{250, 200, 40, 255}
)

// Scene returns the reference geometry drawn behind the camera path: a
// ground grid on z=0, the fixed-frame axes and a unit cube at the origin.
func Scene(gridHalf int) []Segment {
	var segs []Segment
	h := float64(gridHalf)
	for i := -gridHalf; i <= gridHalf; i++ {
		f := float64(i)
		segs = append(segs,
			Segment{A: mgl64.Vec3{f, -h, 0}, B: mgl64.Vec3{f, h, 0}, Color: gridColor},
			Segment{A: mgl64.Vec3{-h, f, 0}, B: mgl64.Vec3{h, f, 0}, Color: gridColor},
		)
	}
	segs = append(segs,
		Segment{B: mgl64.Vec3{2, 0, 0}, Color: axisX},
		Segment{B: mgl64.Vec3{0, 2, 0}, Color: axisY},
		Segment{B: mgl64.Vec3{0, 0, 2}, Color: axisZ},
	)
	return append(segs, cube(mgl64.Vec3{0, 0, 0.5}, 0.5, cubeColor)...)
}

func cube(center mgl64.Vec3, half float64, c color.RGBA) []Segment {
	var corners [8]mgl64.Vec3
	for i := range corners {
		corners[i] = center.Add(mgl64.Vec3{
			sign(i&1 != 0) * half,
			sign(i&2 != 0) * half,
			sign(i&4 != 0) * half,
		})
	}
	var segs []Segment
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				segs = append(segs, Segment{A: corners[i], B: corners[i|bit], Color: c})
			}
		}
	}
	return segs
}

// Marker returns a small 3D cross at p.
func Marker(p mgl64.Vec3, size float64, c color.RGBA) []Segment {
	return []Segment{
		{A: p.Sub(mgl64.Vec3{size, 0, 0}), B: p.Add(mgl64.Vec3{size, 0, 0}), Color: c},
		{A: p.Sub(mgl64.Vec3{0, size, 0}), B: p.Add(mgl64.Vec3{0, size, 0}), Color: c},
		{A: p.Sub(mgl64.Vec3{0, 0, size}), B: p.Add(mgl64.Vec3{0, 0, size}), Color: c},
	}
}

func sign(pos bool) float64 {
	if pos {
		return 1
	}
	return -1
}

// Projection maps fixed-frame points to pixel coordinates for one pose.
type Projection struct {
	vp   mgl64.Mat4
	w, h float64
}

// NewProjection builds a perspective projection looking from pose.Eye to
// pose.Focus. Degenerate poses fall back to a usable up vector.
func NewProjection(pose camera.Pose, width, height int, fovDeg float64) Projection {
	eye, focus, up := pose.Eye, pose.Focus, pose.Up
	look := focus.Sub(eye)
	if look.Len() < 1e-9 {
		focus = eye.Add(mgl64.Vec3{0, 0, -1})
		look = focus.Sub(eye)
	}
	if up.Len() < 1e-9 || look.Normalize().Cross(up.Normalize()).Len() < 1e-6 {
		up = mgl64.Vec3{0, 0, 1}
		if math.Abs(look.Normalize().Z()) > 0.99 {
			up = mgl64.Vec3{0, 1, 0}
		}
	}

	aspect := float64(width) / float64(height)
	proj := mgl64.Perspective(mgl64.DegToRad(fovDeg), aspect, nearPlane, farPlane)
	view := mgl64.LookAtV(eye, focus, up)
	return Projection{vp: proj.Mul4(view), w: float64(width), h: float64(height)}
}

// Point projects p. ok is false for points behind the camera.
func (pr Projection) Point(p mgl64.Vec3) (mgl64.Vec2, bool) {
	c := pr.vp.Mul4x1(p.Vec4(1))
	if c[3] < nearPlane {
		return mgl64.Vec2{}, false
	}
	return pr.screen(c), true
}

// Segment projects a line, clipping it at the near plane.
func (pr Projection) Segment(a, b mgl64.Vec3) (mgl64.Vec2, mgl64.Vec2, bool) {
	ca := pr.vp.Mul4x1(a.Vec4(1))
	cb := pr.vp.Mul4x1(b.Vec4(1))
	if ca[3] < nearPlane && cb[3] < nearPlane {
		return mgl64.Vec2{}, mgl64.Vec2{}, false
	}
	if ca[3] < nearPlane {
		ca = clipNear(ca, cb)
	} else if cb[3] < nearPlane {
		cb = clipNear(cb, ca)
	}
	pa, pb := pr.screen(ca), pr.screen(cb)
	if outside(pa, pb, pr.w, pr.h) {
		return pa, pb, false
	}
	return pa, pb, true
}

// clipNear moves the behind point along the segment onto the near plane.
func clipNear(behind, front mgl64.Vec4) mgl64.Vec4 {
	t := (nearPlane - behind[3]) / (front[3] - behind[3])
	return behind.Add(front.Sub(behind).Mul(t))
}

func (pr Projection) screen(c mgl64.Vec4) mgl64.Vec2 {
	x, y := c[0]/c[3], c[1]/c[3]
	return mgl64.Vec2{(x + 1) / 2 * pr.w, (1 - y) / 2 * pr.h}
}

// outside reports whether both points lie beyond the same screen edge.
func outside(a, b mgl64.Vec2, w, h float64) bool {
	return (a[0] < 0 && b[0] < 0) || (a[0] > w && b[0] > w) ||
		(a[1] < 0 && b[1] < 0) || (a[1] > h && b[1] > h)
}
