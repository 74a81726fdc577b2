package analyzer

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Landmarks maps region centers of a page with the given bounds onto the
// ground plane z=0, the page spanning [-half, half] on both axes. Image y
// grows downwards, scene y grows away from the viewer.
func Landmarks(regions []Region, bounds image.Rectangle, half float64) []mgl64.Vec3 {
	if bounds.Empty() {
		return nil
	}
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	points := make([]mgl64.Vec3, 0, len(regions))
	for _, r := range regions {
		c := r.Center().Sub(bounds.Min)
		points = append(points, mgl64.Vec3{
			(2*float64(c.X)/w - 1) * half,
			(1 - 2*float64(c.Y)/h) * half,
			0,
		})
	}
	return points
}
