// Package renderer draws a software wireframe preview of the scene as seen by
// the animated camera. It stands in for the real 3D view: frames are only
// meant for checking camera paths.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/animcam/internal/engine"
	"github.com/ivlev/animcam/internal/system"
)

const (
	DefaultFOV      = 45.0
	DefaultGridHalf = 5
	lineWidth       = 1.5
	stampSize       = 96
	stampMargin     = 8
)

var background = color.RGBA{18, 18, 28, 255}

// BackdropProvider supplies the page shown behind the scene for a movement.
type BackdropProvider interface {
	Page(n int) (*image.RGBA, error)
}

type Options struct {
	Width, Height int
	// FOV is the vertical field of view in degrees.
	FOV float64
	// GridHalf is the half extent of the ground grid.
	GridHalf int
	HUD      bool
	// Stamp draws a QR code with the tick number and progress in the corner.
	Stamp    bool
	Backdrop BackdropProvider
	Pool     *system.ImagePool
}

// Renderer is the preview display. Show records the tick to draw; Snapshot
// renders it.
type Renderer struct {
	opts    Options
	scene   []Segment
	markers []Segment
	raster  *vector.Rasterizer
	last    engine.Tick
	shown   bool
}

func New(opts Options) *Renderer {
	if opts.FOV <= 0 {
		opts.FOV = DefaultFOV
	}
	if opts.GridHalf <= 0 {
		opts.GridHalf = DefaultGridHalf
	}
	if opts.Pool == nil {
		opts.Pool = system.NewImagePool()
	}
	return &Renderer{
		opts:   opts,
		scene:  Scene(opts.GridHalf),
		raster: vector.NewRasterizer(opts.Width, opts.Height),
	}
}

// Size returns the frame size.
func (r *Renderer) Size() image.Point {
	return image.Pt(r.opts.Width, r.opts.Height)
}

// SetMarkers places crosses at the given fixed-frame points, typically the
// goals of the loaded script.
func (r *Renderer) SetMarkers(points []mgl64.Vec3) {
	r.markers = r.markers[:0]
	for _, p := range points {
		r.markers = append(r.markers, Marker(p, 0.25, focusColor)...)
	}
}

// Show records the latest tick.
func (r *Renderer) Show(t engine.Tick) {
	r.last, r.shown = t, true
}

// Snapshot renders the last shown tick into a pooled frame. Hand the frame
// back with Release once every consumer is done with it.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	if !r.shown {
		return nil, fmt.Errorf("snapshot before first tick")
	}
	dst := r.opts.Pool.Get(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	if err := r.Render(dst, r.last); err != nil {
		r.opts.Pool.Put(dst)
		return nil, err
	}
	return dst, nil
}

// Release returns a snapshot to the pool.
func (r *Renderer) Release(img *image.RGBA) {
	r.opts.Pool.Put(img)
}

// Render draws the scene for t into dst.
func (r *Renderer) Render(dst *image.RGBA, t engine.Tick) error {
	if err := r.drawBackdrop(dst, int(t.Completed)); err != nil {
		return err
	}

	proj := NewProjection(t.Pose, r.opts.Width, r.opts.Height, r.opts.FOV)
	r.drawSegments(dst, proj, r.scene)
	r.drawSegments(dst, proj, r.markers)
	r.drawSegments(dst, proj, Marker(t.Pose.Focus, 0.1, focusColor))

	if r.opts.HUD {
		r.drawHUD(dst, t)
	}
	if r.opts.Stamp {
		if err := r.drawStamp(dst, t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawBackdrop(dst *image.RGBA, movement int) error {
	if r.opts.Backdrop == nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
		return nil
	}
	page, err := r.opts.Backdrop.Page(movement)
	if err != nil {
		return err
	}
	draw.Draw(dst, dst.Bounds(), page, page.Bounds().Min, draw.Src)
	return nil
}

// drawSegments strokes every segment as a thin quad, one rasterizer pass per
// colour run.
func (r *Renderer) drawSegments(dst *image.RGBA, proj Projection, segs []Segment) {
	var current color.RGBA
	pending := false
	flush := func() {
		if pending {
			r.raster.Draw(dst, dst.Bounds(), image.NewUniform(current), image.Point{})
			pending = false
		}
	}

	for _, s := range segs {
		a, b, ok := proj.Segment(s.A, s.B)
		if !ok {
			continue
		}
		if pending && s.Color != current {
			flush()
		}
		if !pending {
			r.raster.Reset(r.opts.Width, r.opts.Height)
			current, pending = s.Color, true
		}
		stroke(r.raster, clampPoint(a), clampPoint(b), lineWidth)
	}
	flush()
}

func stroke(z *vector.Rasterizer, a, b mgl64.Vec2, width float64) {
	d := b.Sub(a)
	l := d.Len()
	if l < 1e-6 {
		d, l = mgl64.Vec2{1, 0}, 1
	}
	n := mgl64.Vec2{-d[1], d[0]}.Mul(width / 2 / l)
	z.MoveTo(float32(a[0]+n[0]), float32(a[1]+n[1]))
	z.LineTo(float32(b[0]+n[0]), float32(b[1]+n[1]))
	z.LineTo(float32(b[0]-n[0]), float32(b[1]-n[1]))
	z.LineTo(float32(a[0]-n[0]), float32(a[1]-n[1]))
	z.ClosePath()
}

// clampPoint keeps far-off projections inside float32 range.
func clampPoint(p mgl64.Vec2) mgl64.Vec2 {
	const limit = 1e5
	return mgl64.Vec2{math.Max(-limit, math.Min(limit, p[0])), math.Max(-limit, math.Min(limit, p[1]))}
}

func (r *Renderer) drawHUD(dst *image.RGBA, t engine.Tick) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	lines := []string{
		fmt.Sprintf("tick %d  %s  done %d", t.Seq, t.State, t.Completed),
		fmt.Sprintf("t=%.3f s=%.3f", t.TimeProgress, t.SpaceProgress),
		fmt.Sprintf("eye (%.2f, %.2f, %.2f)", t.Pose.Eye[0], t.Pose.Eye[1], t.Pose.Eye[2]),
	}
	if t.Held {
		lines = append(lines, "frame lost, holding")
	}
	for i, line := range lines {
		d.Dot = fixed.P(8, 16+14*i)
		d.DrawString(line)
	}
}

func (r *Renderer) drawStamp(dst *image.RGBA, t engine.Tick) error {
	q, err := qrcode.New(StampText(t), qrcode.Low)
	if err != nil {
		return fmt.Errorf("frame stamp: %w", err)
	}
	q.DisableBorder = true
	code := q.Image(stampSize)

	b := dst.Bounds()
	at := image.Pt(b.Max.X-stampSize-stampMargin, b.Max.Y-stampSize-stampMargin)
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(image.Pt(stampSize, stampSize))}, code, image.Point{}, draw.Src)
	return nil
}

// StampText is the payload of the QR frame stamp.
func StampText(t engine.Tick) string {
	return fmt.Sprintf("animcam tick=%d done=%d t=%.4f", t.Seq, t.Completed, t.TimeProgress)
}
