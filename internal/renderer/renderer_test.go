package renderer

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/animcam/internal/camera"
	"github.com/ivlev/animcam/internal/engine"
)

func TestProjectionCentersFocus(t *testing.T) {
	pose := camera.DefaultPose()
	proj := NewProjection(pose, 200, 100, DefaultFOV)

	p, ok := proj.Point(pose.Focus)
	require.True(t, ok)
	assert.InDelta(t, 100, p[0], 1e-6)
	assert.InDelta(t, 50, p[1], 1e-6)

	_, ok = proj.Point(pose.Eye.Add(pose.Eye.Sub(pose.Focus)))
	assert.False(t, ok, "point behind the camera")
}

func TestProjectionUpIsScreenUp(t *testing.T) {
	pose := camera.Pose{Eye: mgl64.Vec3{0, 0, 5}, Up: mgl64.Vec3{0, 1, 0}}
	proj := NewProjection(pose, 100, 100, DefaultFOV)
	p, ok := proj.Point(mgl64.Vec3{0, 1, 0})
	require.True(t, ok)
	assert.Less(t, p[1], 50.0)
}

func TestProjectionDegeneratePoseIsFinite(t *testing.T) {
	pose := camera.Pose{Eye: mgl64.Vec3{0, 0, 5}, Focus: mgl64.Vec3{0, 0, 0}, Up: mgl64.Vec3{0, 0, 1}}
	proj := NewProjection(pose, 64, 64, DefaultFOV)
	p, ok := proj.Point(mgl64.Vec3{1, 1, 0})
	require.True(t, ok)
	assert.False(t, math.IsNaN(p[0]) || math.IsNaN(p[1]), "NaN projection")
}

func TestSegmentClipsAtNearPlane(t *testing.T) {
	pose := camera.Pose{Eye: mgl64.Vec3{0, 0, 5}, Up: mgl64.Vec3{0, 1, 0}}
	proj := NewProjection(pose, 100, 100, DefaultFOV)

	a, b, ok := proj.Segment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})
	require.True(t, ok)
	assert.InDelta(t, 50, a[0], 1e-6)
	assert.InDelta(t, 50, b[0], 1e-6)

	_, _, ok = proj.Segment(mgl64.Vec3{0, 0, 6}, mgl64.Vec3{1, 0, 7})
	assert.False(t, ok)
}

func TestSceneGeometry(t *testing.T) {
	segs := Scene(2)
	// 5 lines each way, 3 axes, 12 cube edges.
	assert.Len(t, segs, 10+3+12)
	assert.Len(t, Marker(mgl64.Vec3{}, 1, focusColor), 3)
}

func tickAt(pose camera.Pose) engine.Tick {
	return engine.Tick{Seq: 3, State: engine.StateTransitioning, Pose: pose, TimeProgress: 0.5, SpaceProgress: 0.5}
}

func TestRenderDrawsScene(t *testing.T) {
	r := New(Options{Width: 160, Height: 120, HUD: true})
	_, err := r.Snapshot()
	assert.Error(t, err)

	r.SetMarkers([]mgl64.Vec3{{1, 1, 0}})
	r.Show(tickAt(camera.DefaultPose()))
	img, err := r.Snapshot()
	require.NoError(t, err)
	defer r.Release(img)

	assert.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())

	lit := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != background.R || img.Pix[i+1] != background.G || img.Pix[i+2] != background.B {
			lit++
		}
	}
	assert.Greater(t, lit, 200)
}

type solidBackdrop struct{ c color.RGBA }

func (s solidBackdrop) Page(int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.c.R, s.c.G, s.c.B, s.c.A
	}
	return img, nil
}

func TestRenderBackdropAndStamp(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	r := New(Options{Width: 64, Height: 64, Backdrop: solidBackdrop{white}})
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	// Camera looking away from the scene leaves the backdrop untouched.
	away := camera.Pose{Eye: mgl64.Vec3{0, 0, 50}, Focus: mgl64.Vec3{0, 0, 100}, Up: mgl64.Vec3{0, 1, 0}}
	require.NoError(t, r.Render(dst, tickAt(away)))
	assert.Equal(t, white, dst.RGBAAt(0, 0))

	stamped := New(Options{Width: 256, Height: 256, Stamp: true})
	big := image.NewRGBA(image.Rect(0, 0, 256, 256))
	require.NoError(t, stamped.Render(big, tickAt(away)))
	corner := big.SubImage(image.Rect(256-stampSize-stampMargin, 256-stampSize-stampMargin, 256-stampMargin, 256-stampMargin)).(*image.RGBA)
	dark, light := 0, 0
	for i := 0; i < len(corner.Pix); i += 4 {
		if corner.Pix[i] == 0 {
			dark++
		} else if corner.Pix[i] == 255 {
			light++
		}
	}
	assert.Greater(t, dark, 0)
	assert.Greater(t, light, 0)
}

func TestStampText(t *testing.T) {
	assert.Equal(t, "animcam tick=3 done=0 t=0.5000", StampText(tickAt(camera.DefaultPose())))
}

func TestASCII(t *testing.T) {
	rows := ASCII(camera.DefaultPose(), 60, 20)
	require.Len(t, rows, 20)
	joined := strings.Join(rows, "\n")
	assert.Contains(t, joined, "#")
	assert.Contains(t, joined, "+")
	assert.Contains(t, joined, ".")
	assert.Nil(t, ASCII(camera.DefaultPose(), 0, 10))
}
