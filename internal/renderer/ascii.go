package renderer

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
)

// ASCII draws the scene for pose into a cols x rows character grid for the
// terminal viewer. Terminal cells are about twice as tall as wide.
func ASCII(pose camera.Pose, cols, rows int) []string {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}

	proj := NewProjection(pose, cols, rows*2, DefaultFOV)
	for _, s := range Scene(5) {
		a, b, ok := proj.Segment(s.A, s.B)
		if !ok {
			continue
		}
		plot(grid, a, b, glyph(s))
	}
	if p, ok := proj.Point(pose.Focus); ok {
		set(grid, int(p[0]), int(p[1]/2), '+')
	}

	out := make([]string, rows)
	for i, row := range grid {
		out[i] = string(row)
	}
	return out
}

func glyph(s Segment) rune {
	switch s.Color {
	case axisX:
		return 'x'
	case axisY:
		return 'y'
	case axisZ:
		return 'z'
	case cubeColor:
		return '#'
	}
	return '.'
}

// plot walks the segment in half-cell steps.
func plot(grid [][]rune, a, b mgl64.Vec2, ch rune) {
	a, b = clampPoint(a), clampPoint(b)
	d := b.Sub(a)
	steps := int(max(absf(d[0]), absf(d[1]))*2) + 1
	if steps > 4096 {
		steps = 4096
	}
	for i := 0; i <= steps; i++ {
		p := a.Add(d.Mul(float64(i) / float64(steps)))
		set(grid, int(p[0]), int(p[1]/2), ch)
	}
}

func set(grid [][]rune, x, y int, ch rune) {
	if y < 0 || y >= len(grid) || x < 0 || x >= len(grid[y]) {
		return
	}
	// Axes and the cube win over the grid.
	if grid[y][x] != ' ' && ch == '.' {
		return
	}
	grid[y][x] = ch
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
