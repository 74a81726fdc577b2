// Package director writes and replays camera scripts: timed movement,
// trajectory, pause and frame requests for the animated view.
package director

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ivlev/animcam/internal/camera"
)

// Director generates camera scripts.
type Director struct {
	MinDwell float64 // Minimum time per point of interest (seconds)
	MaxDwell float64 // Maximum time per point of interest (seconds)
	// Distance and Height place the eye relative to a point of interest.
	Distance float64
	Height   float64
	Speed    camera.SpeedProfile
}

// NewDirector creates a new Director with default settings
func NewDirector() *Director {
	return &Director{
		MinDwell: 1.0,
		MaxDwell: 3.0,
		Distance: 6,
		Height:   3,
		Speed:    camera.Wave,
	}
}

// Orbit circles the eye around center in steps equal movements, one full
// revolution in period seconds. The orbit is a single trajectory.
func (d *Director) Orbit(center mgl64.Vec3, radius, height float64, steps int, period float64) (*Script, error) {
	if steps < 2 {
		return nil, fmt.Errorf("orbit needs at least 2 steps, got %d", steps)
	}
	if radius <= 0 || period <= 0 {
		return nil, fmt.Errorf("orbit radius %g and period %g must be positive", radius, period)
	}

	per := period / float64(steps)
	waypoints := make([]Waypoint, 0, steps)
	for i := 1; i <= steps; i++ {
		angle := 2 * math.Pi * float64(i) / float64(steps)
		eye := center.Add(mgl64.Vec3{radius * math.Cos(angle), radius * math.Sin(angle), height})
		waypoints = append(waypoints, Waypoint{
			Eye:      Vec(eye),
			Focus:    Vec(center),
			Up:       Vec{0, 0, 1},
			Duration: per,
			// Constant angular speed between steps.
			Speed: camera.Full,
		})
	}

	return &Script{
		Version: ScriptVersion,
		Events:  []Event{{At: 0, Kind: KindTrajectory, Waypoints: waypoints}},
	}, nil
}

// Tour visits every point of interest in order of angle around their
// centroid, starting and ending on an overview of all of them. total is
// spread over the points within the dwell limits.
func (d *Director) Tour(points []mgl64.Vec3, total float64) (*Script, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points of interest")
	}

	sorted := d.sortPoints(points)
	centroid := centroidOf(sorted)
	dwell := d.calculateDwellTime(total, len(sorted))

	overview := d.overview(sorted, centroid)
	waypoints := []Waypoint{overview}
	for _, p := range sorted {
		dir := p.Sub(centroid)
		dir[2] = 0
		if dir.Len() < 1e-9 {
			dir = mgl64.Vec3{1, 0, 0}
		}
		eye := p.Add(dir.Normalize().Mul(d.Distance)).Add(mgl64.Vec3{0, 0, d.Height})
		waypoints = append(waypoints, Waypoint{
			Eye:      Vec(eye),
			Focus:    Vec(p),
			Up:       Vec{0, 0, 1},
			Duration: dwell,
			Speed:    d.Speed,
		})
	}
	waypoints = append(waypoints, overview)

	return &Script{
		Version: ScriptVersion,
		Events:  []Event{{At: 0, Kind: KindTrajectory, Waypoints: waypoints}},
	}, nil
}

// sortPoints orders points counter-clockwise around their centroid.
func (d *Director) sortPoints(points []mgl64.Vec3) []mgl64.Vec3 {
	sorted := make([]mgl64.Vec3, len(points))
	copy(sorted, points)
	c := centroidOf(sorted)

	sort.SliceStable(sorted, func(i, j int) bool {
		ai := math.Atan2(sorted[i][1]-c[1], sorted[i][0]-c[0])
		aj := math.Atan2(sorted[j][1]-c[1], sorted[j][0]-c[0])
		return ai < aj
	})
	return sorted
}

// calculateDwellTime determines how long to travel to each point
func (d *Director) calculateDwellTime(totalDuration float64, count int) float64 {
	// Reserve time for the overview at both ends.
	introOutroDuration := 2.0
	available := totalDuration - introOutroDuration
	if available <= 0 {
		available = totalDuration
	}

	dwell := available / float64(count)
	return math.Max(d.MinDwell, math.Min(d.MaxDwell, dwell))
}

// overview looks at the centroid from far enough to see every point.
func (d *Director) overview(points []mgl64.Vec3, centroid mgl64.Vec3) Waypoint {
	spread := 0.0
	for _, p := range points {
		spread = math.Max(spread, p.Sub(centroid).Len())
	}
	dist := math.Max(d.Distance, spread*2.5)
	eye := centroid.Add(mgl64.Vec3{dist, -dist, dist}.Mul(1 / math.Sqrt(3)))
	return Waypoint{
		Eye:      Vec(eye),
		Focus:    Vec(centroid),
		Up:       Vec{0, 0, 1},
		Duration: 1.0,
		Speed:    d.Speed,
	}
}

func centroidOf(points []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points)))
}
