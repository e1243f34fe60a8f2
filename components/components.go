package components

import "ebiten-arcade/ecs"

// PositionComponent stores the pixel position of an entity's top-left corner
type PositionComponent struct {
	X, Y float64
}

// VelocityComponent stores horizontal movement in pixels per second
type VelocityComponent struct {
	DX float64
}

// Advance moves pos by the velocity over dt seconds
func (v VelocityComponent) Advance(pos *PositionComponent, dt float64) {
	pos.X += v.DX * dt
}

// WrapComponent sends an entity back to Start once it passes Limit
type WrapComponent struct {
	Start float64
	Limit float64
}

// Apply wraps pos when it has moved past the limit
func (w WrapComponent) Apply(pos *PositionComponent) {
	if pos.X > w.Limit {
		pos.X = w.Start
	}
}

// SpriteComponent names the image an entity is drawn with
type SpriteComponent struct {
	ID string
}

// Draw draws the sprite at pos. It fails when the image is not loaded,
// which the game loop reports as an entity fault.
func (s SpriteComponent) Draw(dst ecs.Surface, images ecs.ImageSource, pos PositionComponent) error {
	img, ok := images.Get(s.ID)
	if !ok {
		return &MissingSpriteError{ID: s.ID}
	}
	dst.DrawImage(img, int(pos.X), int(pos.Y))
	return nil
}

// MissingSpriteError is returned when drawing a sprite whose image is not loaded
type MissingSpriteError struct {
	ID string
}

func (e *MissingSpriteError) Error() string {
	return "sprite " + e.ID + " not loaded"
}

// NameComponent stores the display name for entities
type NameComponent struct {
	Name string
}

// NewNameComponent creates a new name component
func NewNameComponent(name string) *NameComponent {
	return &NameComponent{
		Name: name,
	}
}
