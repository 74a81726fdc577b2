package analyzer

import (
	"image"
	"image/color"
	"math"
	"sort"
)

// ContrastDetector finds regions by Sobel edges, dilation and connected
// components.
type ContrastDetector struct {
	MinArea       int     // px²
	EdgeThreshold float64 // gradient magnitude
	Dilation      int     // kernel size
	Passes        int
	// MaxRegions keeps only the largest regions; 0 keeps all.
	MaxRegions int
}

// NewContrastDetector creates a detector tuned for slide-like pages.
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		MinArea:       500,
		EdgeThreshold: 30,
		Dilation:      5,
		Passes:        2,
		MaxRegions:    8,
	}
}

// Detect returns the regions sorted by area, largest first.
func (d *ContrastDetector) Detect(img image.Image) ([]Region, error) {
	gray := toGray(img)
	edges := sobel(gray, d.EdgeThreshold)
	mask := dilate(edges, d.Dilation, d.Passes)

	var regions []Region
	for _, rect := range components(mask) {
		if rect.Dx()*rect.Dy() < d.MinArea {
			continue
		}
		regions = append(regions, Region{Rect: rect, Weight: density(edges, rect)})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return area(regions[i].Rect) > area(regions[j].Rect)
	})
	if d.MaxRegions > 0 && len(regions) > d.MaxRegions {
		regions = regions[:d.MaxRegions]
	}
	return regions, nil
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }

// toGray copies img into a zero-origin grayscale image.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			gray.SetGray(x, y, color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray))
		}
	}
	return gray
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

func sobel(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)
	for y := 1; y < b.Dy()-1; y++ {
		for x := 1; x < b.Dx()-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := float64(gray.Pix[(y+ky)*gray.Stride+x+kx])
					gx += p * sobelX[ky+1][kx+1]
					gy += p * sobelY[ky+1][kx+1]
				}
			}
			if math.Hypot(gx, gy) > threshold {
				edges.Pix[y*edges.Stride+x] = 255
			}
		}
	}
	return edges
}

// dilate grows white areas so that nearby edges merge into one component.
func dilate(mask *image.Gray, size, passes int) *image.Gray {
	b := mask.Bounds()
	half := size / 2
	out := mask
	for i := 0; i < passes; i++ {
		next := image.NewGray(b)
		for y := half; y < b.Dy()-half; y++ {
			for x := half; x < b.Dx()-half; x++ {
				var m uint8
				for ky := -half; ky <= half && m < 255; ky++ {
					row := (y + ky) * out.Stride
					for kx := -half; kx <= half; kx++ {
						m = max(m, out.Pix[row+x+kx])
					}
				}
				next.Pix[y*next.Stride+x] = m
			}
		}
		out = next
	}
	return out
}

// components returns the bounding boxes of 4-connected white areas.
func components(mask *image.Gray) []image.Rectangle {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	var rects []image.Rectangle

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || mask.Pix[y*mask.Stride+x] <= 128 {
				continue
			}
			rect := image.Rect(x, y, x+1, y+1)
			stack := []image.Point{{X: x, Y: y}}
			visited[y*w+x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				rect = rect.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for _, n := range [4]image.Point{image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y), image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1)} {
					if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h {
						continue
					}
					if i := n.Y*w + n.X; !visited[i] && mask.Pix[n.Y*mask.Stride+n.X] > 128 {
						visited[i] = true
						stack = append(stack, n)
					}
				}
			}
			rects = append(rects, rect)
		}
	}
	return rects
}

func density(edges *image.Gray, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if edges.Pix[y*edges.Stride+x] > 128 {
				n++
			}
		}
	}
	return float64(n) / float64(area(r))
}
