package spawners

import (
	"ebiten-arcade/components"
	"ebiten-arcade/ecs"
)

// Bug is an enemy crossing its row from left to right, reappearing on the
// left once it has left the canvas
type Bug struct {
	name     *components.NameComponent
	Position components.PositionComponent
	Velocity components.VelocityComponent
	Wrap     components.WrapComponent
	Sprite   components.SpriteComponent

	images ecs.ImageSource
}

// Update moves the bug by its speed over dt seconds
func (b *Bug) Update(dt float64) error {
	b.Velocity.Advance(&b.Position, dt)
	b.Wrap.Apply(&b.Position)
	return nil
}

// Render draws the bug sprite
func (b *Bug) Render(dst ecs.Surface) error {
	return b.Sprite.Draw(dst, b.images, b.Position)
}

// Name returns the display name
func (b *Bug) Name() string {
	return b.name.Name
}

// Hero is the player character. Input handling is left to the embedding
// game, so the hero stays on its starting cell.
type Hero struct {
	name     *components.NameComponent
	Position components.PositionComponent
	Sprite   components.SpriteComponent

	images ecs.ImageSource
}

// Update implements ecs.Entity; the hero has no autonomous movement
func (h *Hero) Update(dt float64) error {
	return nil
}

// Render draws the hero sprite
func (h *Hero) Render(dst ecs.Surface) error {
	return h.Sprite.Draw(dst, h.images, h.Position)
}

// Name returns the display name
func (h *Hero) Name() string {
	return h.name.Name
}
