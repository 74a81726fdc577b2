package publisher

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/animcam/internal/engine"
)

// PoseFeedback is the per-tick pose report.
type PoseFeedback struct {
	Tick          uint64     `yaml:"tick"`
	State         string     `yaml:"state"`
	Eye           [3]float64 `yaml:"eye,flow"`
	Focus         [3]float64 `yaml:"focus,flow"`
	Up            [3]float64 `yaml:"up,flow"`
	Orientation   [4]float64 `yaml:"orientation,flow"`
	TimeProgress  float64    `yaml:"time_progress"`
	SpaceProgress float64    `yaml:"space_progress"`
	FrameByFrame  bool       `yaml:"frame_by_frame"`
	Held          bool       `yaml:"held,omitempty"`
	Completed     uint64     `yaml:"completed"`
}

// FeedbackFrom builds the report for t. Orientation is w, x, y, z.
func FeedbackFrom(t engine.Tick) PoseFeedback {
	q := t.Pose.Orientation()
	return PoseFeedback{
		Tick:          t.Seq,
		State:         t.State.String(),
		Eye:           t.Pose.Eye,
		Focus:         t.Pose.Focus,
		Up:            t.Pose.Up,
		Orientation:   [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		TimeProgress:  t.TimeProgress,
		SpaceProgress: t.SpaceProgress,
		FrameByFrame:  t.FrameByFrame,
		Held:          t.Held,
		Completed:     t.Completed,
	}
}

// PoseLog writes feedback as a multi-document YAML stream.
type PoseLog struct {
	mu     sync.Mutex
	enc    *yaml.Encoder
	closer io.Closer
}

// NewPoseLog writes to w.
func NewPoseLog(w io.Writer) *PoseLog {
	l := &PoseLog{enc: yaml.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// CreatePoseLog creates the file at path.
func CreatePoseLog(path string) (*PoseLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pose log: %w", err)
	}
	return NewPoseLog(f), nil
}

func (l *PoseLog) WritePose(fb PoseFeedback) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(fb)
}

func (l *PoseLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.enc.Close()
	if l.closer != nil {
		err = errors.Join(err, l.closer.Close())
	}
	return err
}

// ReadPoseLog decodes every document of a pose log.
func ReadPoseLog(r io.Reader) ([]PoseFeedback, error) {
	dec := yaml.NewDecoder(r)
	var out []PoseFeedback
	for {
		var fb PoseFeedback
		err := dec.Decode(&fb)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, fb)
	}
}
