package service

import (
	"time"

	"github.com/wricardo/snake-arena/game/engine"
)

// RoomInfo is the external view of a room returned by service operations.
type RoomInfo struct {
	engine.RoomData
	CreatedAt time.Time      `json:"createdAt"`
	Config    *engine.Config `json:"config"`
}

// PresetInfo summarizes one arena preset available at room creation.
type PresetInfo struct {
	ConfigID        string  `json:"configId"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	TargetFoodCount int     `json:"targetFoodCount"`
}
