// Package config holds the run configuration shared by the command line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Validate and Load for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	FPS           int  `yaml:"fps"`
	FrameByFrame  bool `yaml:"frame_by_frame"`
	PublishImages bool `yaml:"publish_images"`
	PublishPoses  bool `yaml:"publish_poses"`
	// DefaultTransition is in seconds.
	DefaultTransition float64 `yaml:"default_transition"`
	QueueCapacity     int     `yaml:"queue_capacity"`

	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	OutputDir    string `yaml:"output_dir"`
	VideoOutput  string `yaml:"video_output"`
	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`
	Workers      int    `yaml:"workers"`
	Backdrop     string `yaml:"backdrop"`
	DPI          int    `yaml:"dpi"`
	StampFrames  bool   `yaml:"stamp_frames"`

	ShowStats bool   `yaml:"show_stats"`
	Verbose   bool   `yaml:"verbose"`
	Script    string `yaml:"script"`

	BuildVersion string `yaml:"-"`
}

// Default returns the settings used when neither a file nor a flag says
// otherwise.
func Default() Config {
	return Config{
		FPS:               30,
		FrameByFrame:      true,
		PublishImages:     true,
		PublishPoses:      true,
		DefaultTransition: 1,
		QueueCapacity:     100,
		Width:             1280,
		Height:            720,
		OutputDir:         "output",
		Quality:           23,
		Workers:           4,
		DPI:               72,
	}
}

// Load reads a YAML file on top of Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	var errs []error
	if c.FPS <= 0 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range 1..240", c.FPS))
	}
	if c.DefaultTransition < 0 {
		errs = append(errs, fmt.Errorf("negative default_transition %g", c.DefaultTransition))
	}
	if c.QueueCapacity < 2 {
		errs = append(errs, fmt.Errorf("queue_capacity %d below 2", c.QueueCapacity))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d", c.Width, c.Height))
	}
	if c.Width%2 != 0 || c.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("frame size %dx%d must be even for yuv420p", c.Width, c.Height))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers %d", c.Workers))
	}
	if c.Quality < 0 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d out of range 0..100", c.Quality))
	}
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("dpi %d", c.DPI))
	}
	if (c.PublishImages || c.VideoOutput != "") && c.OutputDir == "" && c.VideoOutput == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Transition returns DefaultTransition as a duration.
func (c Config) Transition() time.Duration {
	return time.Duration(c.DefaultTransition * float64(time.Second))
}

// FrameInterval returns the tick period at the configured rate.
func (c Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}
