package system

import (
	"image"
	"sync"
)

// ImagePool recycles RGBA frames per size so the render loop does not
// allocate a new frame on every tick.
type ImagePool struct {
	mu    sync.RWMutex
	pools map[image.Point]*sync.Pool
}

// NewImagePool creates an empty pool.
func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

var globalPool = NewImagePool()

// GetImage takes a frame of the given size from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns a frame to the shared pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

// Get returns a frame covering rect. Its pixels are not cleared.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	key := rect.Size()
	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[key]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(image.Rectangle{Max: key})
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	img.Rect = rect
	return img
}

// Put hands img back. Frames of a size the pool never served are dropped.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	key := img.Rect.Size()
	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}
