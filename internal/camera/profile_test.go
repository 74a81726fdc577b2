package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var allProfiles = []SpeedProfile{Rising, Declining, Full, Wave}

func TestEvaluateEndpointsAndRange(t *testing.T) {
	for _, p := range allProfiles {
		t.Run(p.String(), func(t *testing.T) {
			assert.Equal(t, 0.0, Evaluate(0, p))
			assert.Equal(t, 1.0, Evaluate(1, p))

			prev := 0.0
			for i := 0; i <= 1000; i++ {
				s := Evaluate(float64(i)/1000, p)
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)
				assert.GreaterOrEqual(t, s, prev, "not monotonic at step %d", i)
				prev = s
			}
		})
	}
}

func TestEvaluateShapes(t *testing.T) {
	assert.Equal(t, 0.5, Evaluate(0.5, Wave))
	assert.Equal(t, 0.25, Evaluate(0.25, Full))

	// Rising lags behind constant speed, Declining runs ahead of it.
	assert.Less(t, Evaluate(0.5, Rising), 0.5)
	assert.Greater(t, Evaluate(0.5, Declining), 0.5)

	// Wave is slow at both ends.
	assert.Less(t, Evaluate(0.1, Wave), 0.1)
	assert.Greater(t, Evaluate(0.9, Wave), 0.9)
}

func TestParseSpeedProfile(t *testing.T) {
	tests := []struct {
		in      string
		want    SpeedProfile
		wantErr bool
	}{
		{"rising", Rising, false},
		{"DECLINING", Declining, false},
		{" full ", Full, false},
		{"wave", Wave, false},
		{"3", Wave, false},
		{"0", Rising, false},
		{"4", Wave, true},
		{"zigzag", Wave, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpeedProfile(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, Rising, got, "zero value on error")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpeedProfileYAML(t *testing.T) {
	var doc struct {
		Speed SpeedProfile `yaml:"speed"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("speed: declining\n"), &doc))
	assert.Equal(t, Declining, doc.Speed)

	require.NoError(t, yaml.Unmarshal([]byte("speed: 2\n"), &doc))
	assert.Equal(t, Full, doc.Speed)

	assert.Error(t, yaml.Unmarshal([]byte("speed: [1]\n"), &doc))

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Equal(t, "speed: full\n", string(out))
}
