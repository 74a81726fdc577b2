package camera

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpeedProfile selects how relative progress in time maps to relative
// progress in space during a movement.
type SpeedProfile uint8

const (
	// Rising accelerates smoothly and arrives at full speed.
	Rising SpeedProfile = iota
	// Declining starts at full speed and slows down towards the goal.
	Declining
	// Full moves at constant speed for the whole duration.
	Full
	// Wave is Rising followed by Declining: slow, fast, slow.
	Wave
)

var profileNames = [...]string{"rising", "declining", "full", "wave"}

func (p SpeedProfile) String() string {
	if int(p) < len(profileNames) {
		return profileNames[p]
	}
	return fmt.Sprintf("profile(%d)", uint8(p))
}

// Valid reports whether p is one of the known profiles.
func (p SpeedProfile) Valid() bool {
	return int(p) < len(profileNames)
}

// ParseSpeedProfile accepts a profile name (case-insensitive) or its numeric
// wire code 0..3.
func ParseSpeedProfile(s string) (SpeedProfile, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range profileNames {
		if s == name {
			return SpeedProfile(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(profileNames) {
		return SpeedProfile(n), nil
	}
	return Rising, fmt.Errorf("unknown speed profile %q", s)
}

// MarshalYAML writes the profile by name.
func (p SpeedProfile) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML reads a profile name or numeric code.
func (p *SpeedProfile) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: speed profile must be a scalar", value.Line)
	}
	parsed, err := ParseSpeedProfile(value.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Evaluate converts relative progress in time into relative progress in space
// for the given profile. timeProgress must already be clamped to [0,1].
//
// Example: with Rising, at half of the duration the camera is not yet half way
// because it spent time accelerating.
func Evaluate(timeProgress float64, p SpeedProfile) float64 {
	if timeProgress <= 0 {
		return 0
	}
	if timeProgress >= 1 {
		return 1
	}

	var s float64
	switch p {
	case Rising:
		s = 1 - math.Cos(timeProgress*math.Pi/2)
	case Declining:
		s = math.Sin(timeProgress * math.Pi / 2)
	case Wave:
		if timeProgress < 0.5 {
			s = 0.5 * (1 - math.Cos(2*timeProgress*math.Pi/2))
		} else {
			s = 0.5 + 0.5*math.Sin((2*timeProgress-1)*math.Pi/2)
		}
	default:
		s = timeProgress
	}
	return clamp01(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
