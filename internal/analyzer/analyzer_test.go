package analyzer

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(rects ...image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for _, r := range rects {
		draw.Draw(img, r, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)
	}
	return img
}

func TestContrastDetector(t *testing.T) {
	regions, err := NewContrastDetector().Detect(page(image.Rect(50, 50, 150, 150)))
	require.NoError(t, err)
	require.NotEmpty(t, regions)

	r := regions[0]
	if r.Rect.Dx() < 80 || r.Rect.Dy() < 80 {
		t.Errorf("Region too small: %v", r.Rect)
	}
	assert.InDelta(t, 100, r.Center().X, 3)
	assert.InDelta(t, 100, r.Center().Y, 3)
	assert.Greater(t, r.Weight, 0.0)
}

func TestContrastDetectorSortsAndLimits(t *testing.T) {
	img := page(image.Rect(10, 10, 40, 40), image.Rect(100, 100, 190, 190), image.Rect(10, 120, 60, 170))
	d := NewContrastDetector()
	d.MaxRegions = 2

	regions, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.GreaterOrEqual(t, area(regions[0].Rect), area(regions[1].Rect))
	assert.True(t, regions[0].Rect.Overlaps(image.Rect(100, 100, 190, 190)))
}

func TestContrastDetectorBlankPage(t *testing.T) {
	regions, err := NewContrastDetector().Detect(page())
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestLandmarks(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)
	regions := []Region{
		{Rect: image.Rect(90, 40, 110, 60)},
		{Rect: image.Rect(0, 0, 20, 10)},
	}
	points := Landmarks(regions, bounds, 5)
	require.Len(t, points, 2)
	assert.True(t, points[0].ApproxEqual(mgl64.Vec3{0, 0, 0}), "center maps to origin, got %v", points[0])
	assert.InDelta(t, -4.5, points[1][0], 1e-9)
	assert.InDelta(t, 4.5, points[1][1], 1e-9)

	assert.Nil(t, Landmarks(regions, image.Rectangle{}, 5))
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"contrast", false},
		{"", false},
		{"ocr", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if detector == nil {
				t.Error("Expected detector, got nil")
			}
		})
	}
}
