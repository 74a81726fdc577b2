package system

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(dir, "old.yaml"), base)
	touch(t, filepath.Join(dir, "new.YML"), base.Add(time.Minute))
	touch(t, filepath.Join(dir, "newest.txt"), base.Add(2*time.Minute))
	touch(t, filepath.Join(dir, "slide.pdf"), base.Add(3*time.Minute))

	got, err := FindLatestScript(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new.YML"), got)

	got, err = FindLatestBackdrop(filepath.Join(dir, "old.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "slide.pdf"), got)

	_, err = FindLatest(dir, ".mp4")
	assert.Error(t, err)
	_, err = FindLatest(filepath.Join(dir, "missing"), ".mp4")
	assert.Error(t, err)
}

func TestDefaultQuality(t *testing.T) {
	assert.Equal(t, 75, DefaultQuality("h264_videotoolbox"))
	assert.Equal(t, 28, DefaultQuality("h264_nvenc"))
	assert.Equal(t, 23, DefaultQuality("libx264"))
}

func TestImagePoolReusesBySize(t *testing.T) {
	p := NewImagePool()
	rect := image.Rect(0, 0, 8, 4)
	img := p.Get(rect)
	assert.Equal(t, rect, img.Bounds())
	assert.Len(t, img.Pix, 8*4*4)
	p.Put(img)

	other := p.Get(image.Rect(0, 0, 2, 2))
	assert.Equal(t, 2, other.Bounds().Dx())
	p.Put(nil)
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
}

func TestMonitorSample(t *testing.T) {
	m, err := NewMonitor()
	require.NoError(t, err)
	s, err := m.Sample(context.Background())
	if err != nil {
		t.Skipf("process statistics unavailable: %v", err)
	}
	assert.Greater(t, s.Goroutines, 0)
	assert.NotEmpty(t, s.String())
	assert.GreaterOrEqual(t, m.Uptime(), time.Duration(0))
}
