package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Fault policies for entity update/render failures
const (
	FaultPolicySkip = "skip"
	FaultPolicyHalt = "halt"
)

// Default asset identifiers preloaded at startup
const (
	WaterBlock = "images/water-block.png"
	StoneBlock = "images/stone-block.png"
	GrassBlock = "images/grass-block.png"
	EnemyBug   = "images/enemy-bug.png"
	CharBoy    = "images/char-boy.png"
)

// Settings holds everything the game reads from its TOML settings file
type Settings struct {
	Title       string  `toml:"title"`
	WindowScale float64 `toml:"window_scale"`
	LogLevel    string  `toml:"log_level"`

	// Headless frame rate, the windowed host follows the display refresh
	FrameRate   int    `toml:"frame_rate"`
	FaultPolicy string `toml:"fault_policy"`

	Assets AssetSettings `toml:"assets"`
	Level  LevelSettings `toml:"level"`
}

// AssetSettings configures the resource cache
type AssetSettings struct {
	// Directory or http(s) base URL identifiers are resolved against
	Root               string   `toml:"root"`
	Preload            []string `toml:"preload"`
	MaxConcurrentLoads int      `toml:"max_concurrent_loads"`
	HotReload          bool     `toml:"hot_reload"`

	Retry RetrySettings `toml:"retry"`
}

// RetrySettings configures bounded retry of asset fetches
type RetrySettings struct {
	Attempts     int `toml:"attempts"`
	BackoffMS    int `toml:"backoff_ms"`
	MaxBackoffMS int `toml:"max_backoff_ms"`

	// Limit for a single fetch attempt, 0 disables it
	TimeoutMS int `toml:"timeout_ms"`
}

// LevelSettings describes the background rows and the demo entities
type LevelSettings struct {
	// One asset identifier per background row, top to bottom
	Rows []string `toml:"rows"`

	EnemySprite  string          `toml:"enemy_sprite"`
	PlayerSprite string          `toml:"player_sprite"`
	Enemies      []EnemySettings `toml:"enemies"`
	PlayerCol    int             `toml:"player_col"`
	PlayerRow    int             `toml:"player_row"`
}

// EnemySettings places a single enemy on a row moving at a fixed speed
type EnemySettings struct {
	Row   int     `toml:"row"`
	Speed float64 `toml:"speed"` // pixels per second
}

// Default returns the built-in settings
func Default() Settings {
	return Settings{
		Title:       "Ebiten Arcade",
		WindowScale: 1,
		LogLevel:    "info",
		FrameRate:   60,
		FaultPolicy: FaultPolicySkip,
		Assets: AssetSettings{
			Root:               "assets",
			Preload:            []string{StoneBlock, WaterBlock, GrassBlock, EnemyBug, CharBoy},
			MaxConcurrentLoads: 4,
			Retry: RetrySettings{
				Attempts:     3,
				BackoffMS:    100,
				MaxBackoffMS: 2000,
				TimeoutMS:    10000,
			},
		},
		Level: LevelSettings{
			Rows:         []string{WaterBlock, StoneBlock, StoneBlock, StoneBlock, GrassBlock, GrassBlock},
			EnemySprite:  EnemyBug,
			PlayerSprite: CharBoy,
			Enemies: []EnemySettings{
				{Row: 1, Speed: 120},
				{Row: 2, Speed: 200},
				{Row: 3, Speed: 90},
			},
			PlayerCol: 2,
			PlayerRow: 5,
		},
	}
}

// Load reads settings from a TOML file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := Decode(data, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode decodes TOML data into s, rejecting unknown keys, and validates the result
func Decode(data []byte, s *Settings) error {
	// Array tables append to an existing slice, so a file that lists
	// enemies replaces the defaults instead of adding to them.
	var listed struct {
		Level struct {
			Enemies []EnemySettings `toml:"enemies"`
		} `toml:"level"`
	}
	if err := toml.Unmarshal(data, &listed); err == nil && len(listed.Level.Enemies) > 0 {
		s.Level.Enemies = nil
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown settings keys:\n%s", strict.String())
		}
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	return s.Validate()
}

// Validate checks the settings for values the game cannot run with
func (s Settings) Validate() error {
	var errs []error

	if s.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %d", s.FrameRate))
	}
	switch s.FaultPolicy {
	case FaultPolicySkip, FaultPolicyHalt:
	default:
		errs = append(errs, fmt.Errorf("fault_policy must be %q or %q, got %q", FaultPolicySkip, FaultPolicyHalt, s.FaultPolicy))
	}
	if s.Assets.MaxConcurrentLoads <= 0 {
		errs = append(errs, fmt.Errorf("assets.max_concurrent_loads must be positive, got %d", s.Assets.MaxConcurrentLoads))
	}
	if s.Assets.Retry.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("assets.retry.attempts must be positive, got %d", s.Assets.Retry.Attempts))
	}
	if s.Assets.Retry.BackoffMS < 0 || s.Assets.Retry.MaxBackoffMS < 0 {
		errs = append(errs, errors.New("assets.retry backoff values must not be negative"))
	}
	if s.Assets.Retry.TimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("assets.retry.timeout_ms must not be negative, got %d", s.Assets.Retry.TimeoutMS))
	}
	if s.Assets.HotReload && (strings.HasPrefix(s.Assets.Root, "http://") || strings.HasPrefix(s.Assets.Root, "https://")) {
		errs = append(errs, errors.New("assets.hot_reload requires a directory root"))
	}
	if len(s.Level.Rows) != GridRows {
		errs = append(errs, fmt.Errorf("level.rows must name %d row images, got %d", GridRows, len(s.Level.Rows)))
	}
	for i, row := range s.Level.Rows {
		if row == "" {
			errs = append(errs, fmt.Errorf("level.rows[%d] is empty", i))
		}
	}
	for i, e := range s.Level.Enemies {
		if e.Row < 0 || e.Row >= GridRows {
			errs = append(errs, fmt.Errorf("level.enemies[%d].row %d is outside the grid", i, e.Row))
		}
	}
	if s.Level.PlayerCol < 0 || s.Level.PlayerCol >= GridCols || s.Level.PlayerRow < 0 || s.Level.PlayerRow >= GridRows {
		errs = append(errs, fmt.Errorf("player position (%d,%d) is outside the grid", s.Level.PlayerCol, s.Level.PlayerRow))
	}

	return errors.Join(errs...)
}

// AssetList returns every identifier the game needs, preload list first,
// followed by any row or sprite image not already listed.
func (s Settings) AssetList() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	}

	for _, id := range s.Assets.Preload {
		add(id)
	}
	for _, id := range s.Level.Rows {
		add(id)
	}
	add(s.Level.EnemySprite)
	add(s.Level.PlayerSprite)
	return ids
}
