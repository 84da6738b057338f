package engine

import (
	"fmt"
	"time"
)

// Gameplay constants shared by every room.
const (
	// TickInterval is the fixed simulation step (10 Hz).
	TickInterval = 100 * time.Millisecond

	// MinPlayers is the minimum number of members required to start a game.
	MinPlayers = 2

	// Room size bounds.
	MinRoomSize = 2
	MaxRoomSize = 4

	// SpawnPadding keeps spawned players and food away from the walls.
	SpawnPadding = 20.0

	// CollisionThreshold is the head-to-food distance below which the food
	// counts as eaten.
	CollisionThreshold = 12.0

	// SpeedBoostFactor and SpeedBoostDuration define the SPEED food effect.
	SpeedBoostFactor   = 1.5
	SpeedBoostDuration = 3 * time.Second

	// NormalFoodProbability is the chance a spawned food is NORMAL; the
	// remainder spawn as SPEED.
	NormalFoodProbability = 0.8

	NormalFoodValue = 1
	SpeedFoodValue  = 0
)

// Default arena parameters, used when a preset leaves a field zero.
const (
	DefaultWidth           = 960.0
	DefaultHeight          = 640.0
	DefaultBaseSpeed       = 5.0
	DefaultTargetFoodCount = 20
	DefaultInitialLength   = 5
	DefaultMaxPlayers      = 4
)

// Config describes the arena a room simulates. Presets are stored as JSON
// files and loaded through game/config.
type Config struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	BaseSpeed       float64 `json:"baseSpeed"`
	TargetFoodCount int     `json:"targetFoodCount"`
	InitialLength   int     `json:"initialLength"`
}

// DefaultConfig returns the built-in arena configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:            "default",
		Description:     "Standard snake arena",
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		BaseSpeed:       DefaultBaseSpeed,
		TargetFoodCount: DefaultTargetFoodCount,
		InitialLength:   DefaultInitialLength,
	}
}

// ApplyDefaults fills zero-valued fields with the built-in defaults.
func (c *Config) ApplyDefaults() {
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.BaseSpeed == 0 {
		c.BaseSpeed = DefaultBaseSpeed
	}
	if c.TargetFoodCount == 0 {
		c.TargetFoodCount = DefaultTargetFoodCount
	}
	if c.InitialLength == 0 {
		c.InitialLength = DefaultInitialLength
	}
}

// ValidateConfig checks that a configuration describes a playable arena.
func ValidateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.Width < 4*SpawnPadding || c.Height < 4*SpawnPadding {
		return fmt.Errorf("arena too small: %gx%g (minimum %gx%g)",
			c.Width, c.Height, 4*SpawnPadding, 4*SpawnPadding)
	}
	if c.BaseSpeed <= 0 {
		return fmt.Errorf("base speed must be positive, got %g", c.BaseSpeed)
	}
	if c.BaseSpeed >= SpawnPadding {
		return fmt.Errorf("base speed %g too large for spawn padding %g", c.BaseSpeed, SpawnPadding)
	}
	if c.TargetFoodCount <= 0 {
		return fmt.Errorf("target food count must be positive, got %d", c.TargetFoodCount)
	}
	if c.InitialLength <= 0 {
		return fmt.Errorf("initial length must be positive, got %d", c.InitialLength)
	}
	return nil
}
