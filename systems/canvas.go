package systems

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"golang.org/x/image/draw"

	"ebiten-arcade/config"
)

// Canvas is an in-memory Surface used when running without a window
type Canvas struct {
	mu  sync.Mutex
	img *image.RGBA
}

// NewCanvas creates a transparent canvas of the standard size
func NewCanvas() *Canvas {
	return &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, config.CanvasWidth, config.CanvasHeight)),
	}
}

// Clear makes the rectangle transparent
func (c *Canvas) Clear(x, y, w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, image.Rect(x, y, x+w, y+h), image.Transparent, image.Point{}, draw.Src)
}

// DrawImage composites img over the canvas with its top-left corner at x, y
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := img.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	draw.Draw(c.img, r, img, b.Min, draw.Over)
}

// Snapshot returns a copy of the current canvas contents
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := image.NewRGBA(c.img.Bounds())
	draw.Copy(out, image.Point{}, c.img, c.img.Bounds(), draw.Src, nil)
	return out
}

// SavePNG writes the current canvas contents to path
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, c.Snapshot()); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}
