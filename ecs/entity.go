package ecs

import (
	"fmt"
	"image"
)

// Entity is anything the game loop updates and draws every frame.
// Entities that do not need the time delta simply ignore it.
type Entity interface {
	// Update advances the entity by dt seconds
	Update(dt float64) error
	// Render draws the entity onto dst
	Render(dst Surface) error
}

// Surface is the 2D drawing target of a frame
type Surface interface {
	// Clear erases the rectangle with origin x, y and size w×h
	Clear(x, y, w, h int)
	// DrawImage draws img with its top-left corner at x, y
	DrawImage(img image.Image, x, y int)
}

// ImageSource hands out loaded images by asset identifier
type ImageSource interface {
	Get(id string) (image.Image, bool)
}

// Named is implemented by entities that want a readable name in fault reports
type Named interface {
	Name() string
}

// EntityName returns a readable name for e
func EntityName(e Entity) string {
	if n, ok := e.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", e)
}
