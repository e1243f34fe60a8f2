package screens

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"ebiten-arcade/systems"
)

// FaultScreen lists the most recent entity faults in a modal window
type FaultScreen struct {
	*BaseScreen
	faults       *systems.FaultLog
	scrollOffset int
}

// NewFaultScreen creates a fault overlay reading from faults
func NewFaultScreen(faults *systems.FaultLog) *FaultScreen {
	return &FaultScreen{
		BaseScreen: NewBaseScreen(460, 320),
		faults:     faults,
	}
}

// Update handles scrolling and closing
func (s *FaultScreen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && s.scrollOffset > 0 {
		s.scrollOffset--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && s.scrollOffset < len(s.faults.Recent(100))-1 {
		s.scrollOffset++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		return ErrCloseScreen
	}
	return nil
}

// Lines returns the visible fault lines, newest first
func (s *FaultScreen) Lines(maxLines int) []string {
	faults := s.faults.Recent(100)
	if len(faults) == 0 {
		return []string{"no entity faults"}
	}

	start := s.scrollOffset
	if start > len(faults)-maxLines {
		start = max(len(faults)-maxLines, 0)
	}

	lines := make([]string, 0, maxLines)
	for i := start; i < len(faults) && len(lines) < maxLines; i++ {
		lines = append(lines, faults[i].Error())
	}
	return lines
}

// Draw renders the fault list
func (s *FaultScreen) Draw(screen *ebiten.Image) {
	title := fmt.Sprintf("ENTITY FAULTS (%d total)", s.faults.Total())
	s.drawModal(screen, title, func(modal *ebiten.Image) {
		const startY, lineHeight = 30, 16
		maxLines := (s.height - startY - 20) / lineHeight

		for i, line := range s.Lines(maxLines) {
			ebitenutil.DebugPrintAt(modal, line, 10, startY+i*lineHeight)
		}
		ebitenutil.DebugPrintAt(modal, "Up/Down: Scroll  ESC: Close", 10, s.height-20)
	})
}
