package screens

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// HaltedScreen shows why the game stopped and ends the run on a key press
type HaltedScreen struct {
	*BaseScreen
	lines []string
}

// NewHaltedScreen creates a diagnostic overlay for err
func NewHaltedScreen(err error) *HaltedScreen {
	s := &HaltedScreen{BaseScreen: NewBaseScreen(460, 200)}
	s.lines = wrap(err.Error(), (s.width-20)/6)
	return s
}

// Update ends the game once the player acknowledges the message
func (s *HaltedScreen) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		return ebiten.Termination
	}
	return nil
}

// Draw draws the diagnostic
func (s *HaltedScreen) Draw(screen *ebiten.Image) {
	s.drawModal(screen, "GAME HALTED", func(modal *ebiten.Image) {
		ebitenutil.DebugPrintAt(modal, strings.Join(s.lines, "\n"), 10, 30)
		ebitenutil.DebugPrintAt(modal, "Press Escape to quit", 10, s.height-20)
	})
}

// wrap breaks msg into lines of at most width characters
func wrap(msg string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(msg) {
		if line.Len() > 0 && line.Len()+1+len(word) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
