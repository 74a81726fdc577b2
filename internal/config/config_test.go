package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.Transition())
	assert.Equal(t, time.Second/30, cfg.FrameInterval())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative transition", func(c *Config) { c.DefaultTransition = -1 }},
		{"tiny queue", func(c *Config) { c.QueueCapacity = 1 }},
		{"odd width", func(c *Config) { c.Width = 641 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"quality", func(c *Config) { c.Quality = 101 }},
		{"dpi", func(c *Config) { c.DPI = 0 }},
		{"no output", func(c *Config) { c.OutputDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !assert.ErrorIs(t, err, ErrInvalid) {
				t.Errorf("%s: expected invalid config", tt.name)
			}
		})
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "animcam.yaml")
	body := "fps: 60\nframe_by_frame: false\ndefault_transition: 0.5\nwidth: 640\nheight: 360\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)
	assert.False(t, cfg.FrameByFrame)
	assert.Equal(t, 500*time.Millisecond, cfg.Transition())
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 100, cfg.QueueCapacity)
}

func TestLoadRejectsUnknownAndInvalid(t *testing.T) {
	dir := t.TempDir()

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("fps: 30\nzoom: 2\n"), 0644))
	_, err := Load(unknown)
	assert.ErrorIs(t, err, ErrInvalid)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("fps: -5\n"), 0644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Script = "scripts/orbit.yaml"
	cfg.Verbose = true
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
