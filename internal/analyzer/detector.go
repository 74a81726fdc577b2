package analyzer

import "image"

// Region is an area of a backdrop page that is worth looking at.
type Region struct {
	Rect image.Rectangle
	// Weight is the share of edge pixels inside Rect, in [0,1].
	Weight float64
}

// Center returns the middle of the region in image coordinates.
func (r Region) Center() image.Point {
	return image.Pt((r.Rect.Min.X+r.Rect.Max.X)/2, (r.Rect.Min.Y+r.Rect.Max.Y)/2)
}

// Detector finds regions of interest in a backdrop page.
type Detector interface {
	Detect(img image.Image) ([]Region, error)
}
