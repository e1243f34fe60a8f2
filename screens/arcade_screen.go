package screens

import (
	"image"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	lru "github.com/hashicorp/golang-lru/v2"

	"ebiten-arcade/config"
	"ebiten-arcade/logger"
	"ebiten-arcade/systems"
)

// textureCacheSize bounds the decoded images kept on the GPU
const textureCacheSize = 64

// ArcadeScreen hosts the game loop inside ebiten. It is the loop's frame
// scheduler, running the requested frame from Draw, and its drawing
// surface, forwarding to the current screen image.
type ArcadeScreen struct {
	mu       sync.Mutex
	pending  func()
	loop     *systems.Loop
	haltErr  error
	halted   bool
	target   *ebiten.Image
	textures *lru.Cache[image.Image, *ebiten.Image]
	overlays *ScreenStack
	logger   *log.Logger
}

// NewArcadeScreen creates the ebiten host of a game loop
func NewArcadeScreen(l *log.Logger) *ArcadeScreen {
	textures, err := lru.New[image.Image, *ebiten.Image](textureCacheSize)
	if err != nil {
		// Only fails for a non-positive size
		panic(err)
	}
	return &ArcadeScreen{
		textures: textures,
		overlays: NewScreenStack(),
		logger:   logger.OrDefault(l, "screen"),
	}
}

// Attach sets the loop whose state and faults the screen reports
func (s *ArcadeScreen) Attach(loop *systems.Loop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
}

// Halt makes the screen show err and end the game on the next update
func (s *ArcadeScreen) Halt(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.haltErr == nil {
		s.haltErr = err
	}
}

// RequestFrame queues fn to run on the next Draw
func (s *ArcadeScreen) RequestFrame(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = fn
}

// HasPending reports whether a frame is queued
func (s *ArcadeScreen) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Update handles overlays and ends the game once the loop has stopped
func (s *ArcadeScreen) Update() error {
	s.mu.Lock()
	loop, haltErr, halted := s.loop, s.haltErr, s.halted
	s.mu.Unlock()

	if haltErr != nil && !halted {
		s.logger.Error("game halted", "err", haltErr)
		s.mu.Lock()
		s.halted = true
		s.mu.Unlock()
		s.overlays.Push(NewHaltedScreen(haltErr))
		return nil
	}

	if loop != nil && !halted && inpututil.IsKeyJustPressed(ebiten.KeyF1) && s.overlays.Len() == 0 {
		s.overlays.Push(NewFaultScreen(loop.Faults()))
		return nil
	}

	if err := s.overlays.Update(); err != nil {
		return err
	}

	// A stop without a diagnostic ends the run straight away
	if !halted && loop != nil && loop.State() == systems.StateStopped && loop.Err() == nil {
		return ebiten.Termination
	}
	return nil
}

// Draw runs the pending frame against screen, then draws any overlay
func (s *ArcadeScreen) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.target = screen
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	s.overlays.Draw(screen)
}

// Layout keeps the logical canvas size regardless of window size
func (s *ArcadeScreen) Layout(outsideWidth, outsideHeight int) (int, int) {
	return config.GetScreenDimensions()
}

// Clear erases a rectangle of the current screen image
func (s *ArcadeScreen) Clear(x, y, w, h int) {
	if s.target == nil {
		return
	}
	s.target.SubImage(image.Rect(x, y, x+w, y+h)).(*ebiten.Image).Clear()
}

// DrawImage draws img onto the current screen image at x, y
func (s *ArcadeScreen) DrawImage(img image.Image, x, y int) {
	if s.target == nil || img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	s.target.DrawImage(s.texture(img), op)
}

// texture returns the GPU image for img, uploading it on first use.
// Reloaded assets are new images and get a fresh texture.
func (s *ArcadeScreen) texture(img image.Image) *ebiten.Image {
	if eimg, ok := img.(*ebiten.Image); ok {
		return eimg
	}
	if tex, ok := s.textures.Get(img); ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	s.textures.Add(img, tex)
	return tex
}
