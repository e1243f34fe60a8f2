package systems

import (
	"github.com/charmbracelet/log"

	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
)

// RenderSystem draws a complete frame: clear, background, entities
type RenderSystem struct {
	images     ecs.ImageSource
	background *Background
	width      int
	height     int
	logger     *log.Logger

	warnedMissing bool
}

// NewRenderSystem creates a rendering system for the standard canvas size
func NewRenderSystem(images ecs.ImageSource, background *Background, l *log.Logger) *RenderSystem {
	if background == nil {
		background = DefaultBackground()
	}
	return &RenderSystem{
		images:     images,
		background: background,
		width:      config.CanvasWidth,
		height:     config.CanvasHeight,
		logger:     logger.OrDefault(l, "render"),
	}
}

// Draw clears dst, redraws the background and renders every entity in
// order. A failing entity is reported through onFault, which decides
// whether the entities after it are still rendered.
func (s *RenderSystem) Draw(dst ecs.Surface, entities []ecs.Entity, onFault func(index int, e ecs.Entity, err error) bool) {
	// Clear the whole canvas
	dst.Clear(0, 0, s.width, s.height)

	if missing := s.background.Draw(dst, s.images); missing > 0 && !s.warnedMissing {
		s.warnedMissing = true
		s.logger.Warn("background cells skipped, row images not loaded", "cells", missing)
	}

	for i, e := range entities {
		if err := safeCall(func() error { return e.Render(dst) }); err != nil {
			if !onFault(i, e, err) {
				return
			}
		}
	}
}
