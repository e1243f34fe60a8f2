package screens

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// BaseScreen provides the centered modal box overlays are drawn in
type BaseScreen struct {
	width      int
	height     int
	background color.Color
	frame      color.Color
}

// NewBaseScreen creates a modal box of the given size
func NewBaseScreen(width, height int) *BaseScreen {
	return &BaseScreen{
		width:      width,
		height:     height,
		background: color.RGBA{0, 0, 0, 220}, // Semi-transparent black
		frame:      color.White,
	}
}

// drawModal draws the framed box with a title, lets fill draw the
// content, and centers the result on screen
func (s *BaseScreen) drawModal(screen *ebiten.Image, title string, fill func(modal *ebiten.Image)) {
	bounds := screen.Bounds()
	x := (bounds.Dx() - s.width) / 2
	y := (bounds.Dy() - s.height) / 2

	modal := ebiten.NewImage(s.width, s.height)
	modal.Fill(s.background)

	// Draw frame
	w, h := float32(s.width), float32(s.height)
	const frameWidth = 2
	vector.DrawFilledRect(modal, 0, 0, frameWidth, h, s.frame, false)
	vector.DrawFilledRect(modal, w-frameWidth, 0, frameWidth, h, s.frame, false)
	vector.DrawFilledRect(modal, 0, 0, w, frameWidth, s.frame, false)
	vector.DrawFilledRect(modal, 0, h-frameWidth, w, frameWidth, s.frame, false)

	titleX := (s.width - len(title)*6) / 2 // Approximate text width
	ebitenutil.DebugPrintAt(modal, title, titleX, 8)

	if fill != nil {
		fill(modal)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(modal, op)
}
