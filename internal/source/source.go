// Package source supplies backdrop pages for the preview renderer from a PDF
// document or a folder of images.
package source

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"
)

type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the source kind from the path: PDF files go through fitz,
// anything else is treated as an image file or folder.
func Open(path string) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// RenderPage opens its own document handle so pages can render in parallel.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Backdrops renders source pages once, scaled to the frame size, and serves
// them from memory afterwards.
type Backdrops struct {
	src  Source
	dpi  int
	size image.Point

	mu    sync.Mutex
	pages map[int]*image.RGBA
}

// NewBackdrops wraps src. Pages are scaled to width x height.
func NewBackdrops(src Source, dpi, width, height int) *Backdrops {
	return &Backdrops{
		src:   src,
		dpi:   dpi,
		size:  image.Pt(width, height),
		pages: make(map[int]*image.RGBA),
	}
}

// Page returns page n modulo the page count.
func (b *Backdrops) Page(n int) (*image.RGBA, error) {
	count := b.src.PageCount()
	if count == 0 {
		return nil, fmt.Errorf("backdrop source has no pages")
	}
	index := n % count
	if index < 0 {
		index += count
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if img, ok := b.pages[index]; ok {
		return img, nil
	}

	page, err := b.src.RenderPage(index, b.dpi)
	if err != nil {
		return nil, fmt.Errorf("render backdrop page %d: %w", index, err)
	}
	dst := image.NewRGBA(image.Rectangle{Max: b.size})
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), page, page.Bounds(), xdraw.Src, nil)
	b.pages[index] = dst
	return dst, nil
}

// PageCount returns the number of distinct backdrops.
func (b *Backdrops) PageCount() int {
	return b.src.PageCount()
}

func (b *Backdrops) Close() error {
	return b.src.Close()
}
