package systems

import (
	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
)

// Background draws the static tile grid beneath every frame.
// Each row is covered by a single tile image repeated across all columns.
type Background struct {
	Rows       []string // asset identifier per row, top to bottom
	Cols       int
	TileWidth  int
	TileHeight int
}

// NewBackground creates a grid with one row per identifier and the
// standard column count and cell size
func NewBackground(rows []string) *Background {
	return &Background{
		Rows:       rows,
		Cols:       config.GridCols,
		TileWidth:  config.TileWidth,
		TileHeight: config.TileHeight,
	}
}

// DefaultBackground returns the water, stone, grass layout
func DefaultBackground() *Background {
	return NewBackground(config.Default().Level.Rows)
}

// CellOrigin returns the pixel origin of the cell at row, col
func (b *Background) CellOrigin(row, col int) (x, y int) {
	return col * b.TileWidth, row * b.TileHeight
}

// Draw draws every cell in row-major order. Cells whose image is not
// loaded are skipped; the number of skipped cells is returned.
func (b *Background) Draw(dst ecs.Surface, images ecs.ImageSource) int {
	missing := 0
	for row, id := range b.Rows {
		img, ok := images.Get(id)
		if !ok {
			missing += b.Cols
			continue
		}
		for col := 0; col < b.Cols; col++ {
			x, y := b.CellOrigin(row, col)
			dst.DrawImage(img, x, y)
		}
	}
	return missing
}
