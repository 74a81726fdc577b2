// Package video streams rendered frames into an ffmpeg process.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// ErrClosed is returned for frames written after Close.
var ErrClosed = errors.New("encoder closed")

// Params describes the output stream.
type Params struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	Output        string
}

// FFmpegEncoder pipes raw RGBA frames into a single ffmpeg process.
type FFmpegEncoder struct {
	params Params

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	frames int
	closed bool
}

// NewFFmpegEncoder starts ffmpeg writing params.Output.
func NewFFmpegEncoder(ctx context.Context, params Params) (*FFmpegEncoder, error) {
	if params.Encoder == "" {
		params.Encoder = "libx264"
	}
	e := &FFmpegEncoder{params: params}

	e.cmd = exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(params)...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return e, nil
}

// WriteFrame appends one frame. Frames of another size are cropped or
// padded to the stream size.
func (e *FFmpegEncoder) WriteFrame(index int, img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if err := writeRawRGBA(e.stdin, img, e.params.Width, e.params.Height); err != nil {
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	e.frames++
	return nil
}

// Frames returns the number of frames written.
func (e *FFmpegEncoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Close ends the stream and waits for ffmpeg to finish the file.
func (e *FFmpegEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.stdin.Close()

	if err := e.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, lastLines(e.stderr.String(), 5))
	}
	return nil
}

func buildFFmpegArgs(p Params) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
		"-r", fmt.Sprintf("%d", p.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	}

	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}

	return append(args, p.Output)
}

func writeRawRGBA(w io.Writer, img image.Image, width, height int) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Dx() != width || bounds.Dy() != height || rgba.Stride != width*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix[:width*height*4])
	return err
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
