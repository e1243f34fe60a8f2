package spawners

import (
	"fmt"

	"github.com/charmbracelet/log"

	"ebiten-arcade/components"
	"ebiten-arcade/config"
	"ebiten-arcade/ecs"
	"ebiten-arcade/logger"
)

// EntitySpawner creates the demo entities and adds them to a registry
type EntitySpawner struct {
	registry *ecs.Registry
	images   ecs.ImageSource
	logger   *log.Logger
}

// NewEntitySpawner creates a new entity spawner
func NewEntitySpawner(registry *ecs.Registry, images ecs.ImageSource, l *log.Logger) *EntitySpawner {
	return &EntitySpawner{
		registry: registry,
		images:   images,
		logger:   logger.OrDefault(l, "spawner"),
	}
}

// CreateEnemy creates a bug on row moving right at speed pixels per second
func (s *EntitySpawner) CreateEnemy(row int, speed float64, sprite string) (*Bug, error) {
	if row < 0 || row >= config.GridRows {
		return nil, fmt.Errorf("enemy row %d outside grid of %d rows", row, config.GridRows)
	}

	n := len(s.registry.Enemies()) + 1
	x, y := config.CellOrigin(row, 0)
	bug := &Bug{
		name: components.NewNameComponent(fmt.Sprintf("bug-%d", n)),

		// Start just off the left edge
		Position: components.PositionComponent{X: float64(x - config.TileWidth), Y: float64(y)},
		Velocity: components.VelocityComponent{DX: speed},
		Wrap:     components.WrapComponent{Start: -config.TileWidth, Limit: config.CanvasWidth},
		Sprite:   components.SpriteComponent{ID: sprite},
		images:   s.images,
	}
	s.registry.AddEnemy(bug)

	s.logger.Debug("enemy created", "name", bug.Name(), "row", row, "speed", speed)
	return bug, nil
}

// CreatePlayer creates the hero on the cell at col, row
func (s *EntitySpawner) CreatePlayer(col, row int, sprite string) (*Hero, error) {
	if row < 0 || row >= config.GridRows || col < 0 || col >= config.GridCols {
		return nil, fmt.Errorf("player cell (%d,%d) outside %dx%d grid", col, row, config.GridCols, config.GridRows)
	}

	x, y := config.CellOrigin(row, col)
	hero := &Hero{
		name:     components.NewNameComponent("player"),
		Position: components.PositionComponent{X: float64(x), Y: float64(y)},
		Sprite:   components.SpriteComponent{ID: sprite},
		images:   s.images,
	}
	s.registry.SetPlayer(hero)

	s.logger.Debug("player created", "col", col, "row", row)
	return hero, nil
}

// SpawnLevel creates every enemy and the player the level describes
func (s *EntitySpawner) SpawnLevel(level config.LevelSettings) error {
	for _, e := range level.Enemies {
		if _, err := s.CreateEnemy(e.Row, e.Speed, level.EnemySprite); err != nil {
			return err
		}
	}
	if _, err := s.CreatePlayer(level.PlayerCol, level.PlayerRow, level.PlayerSprite); err != nil {
		return err
	}

	s.logger.Info("level spawned", "enemies", len(level.Enemies))
	return nil
}
