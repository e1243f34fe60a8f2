package config

// Screen layout configuration
const (
	// Background cell size in pixels
	TileWidth  = 101
	TileHeight = 83

	// Background grid dimensions in cells
	GridCols = 5
	GridRows = 6

	// Canvas dimensions in pixels. The height is not GridRows*TileHeight:
	// tiles are taller than their row stride and overlap vertically.
	CanvasWidth  = 505
	CanvasHeight = 606
)

// GetScreenDimensions returns the canvas dimensions in pixels
func GetScreenDimensions() (width, height int) {
	return CanvasWidth, CanvasHeight
}

// GetWindowSize returns the recommended window size (may be different from actual screen dimensions)
func GetWindowSize(scale float64) (width, height int) {
	if scale <= 0 {
		scale = 1
	}
	return int(CanvasWidth * scale), int(CanvasHeight * scale)
}

// CellOrigin returns the pixel origin of the background cell at row, col
func CellOrigin(row, col int) (x, y int) {
	return col * TileWidth, row * TileHeight
}
