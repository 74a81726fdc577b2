package publisher

import (
	"bufio"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/animcam/internal/system"
)

// PNGWriter saves frames as numbered PNG files on a bounded set of
// background workers.
type PNGWriter struct {
	dir     string
	pattern string
	pool    *system.ImagePool
	enc     png.Encoder
	g       errgroup.Group
}

// NewPNGWriter writes into dir, creating it, with at most workers encodes in
// flight. WriteFrame blocks while all workers are busy.
func NewPNGWriter(dir string, workers int) (*PNGWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}
	w := &PNGWriter{
		dir:     dir,
		pattern: "frame_%06d.png",
		pool:    system.NewImagePool(),
		enc:     png.Encoder{CompressionLevel: png.BestSpeed},
	}
	w.g.SetLimit(workers)
	return w, nil
}

// Path returns the file name used for frame index.
func (w *PNGWriter) Path(index int) string {
	return filepath.Join(w.dir, fmt.Sprintf(w.pattern, index))
}

// WriteFrame copies img and encodes it in the background. Encoding errors
// are reported by Close.
func (w *PNGWriter) WriteFrame(index int, img image.Image) error {
	b := img.Bounds()
	frame := w.pool.Get(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), img, b.Min, draw.Src)

	path := w.Path(index)
	w.g.Go(func() error {
		defer w.pool.Put(frame)
		return w.save(path, frame)
	})
	return nil
}

func (w *PNGWriter) save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := w.enc.Encode(bw, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close waits for every pending frame.
func (w *PNGWriter) Close() error {
	return w.g.Wait()
}
