package service

import (
	"context"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/leaderboard"
)

// GameService defines every operation the transports may invoke against the
// game core. Inputs are assumed well-typed; syntactic validation happens at
// the transport edge.
type GameService interface {
	// Room lifecycle
	CreateRoom(ctx context.Context, playerID, playerName string, playerLimit int, preset string) (*RoomInfo, error)
	JoinRoom(ctx context.Context, roomID, playerID, playerName string) (*RoomInfo, error)
	// LeaveRoom removes a member; unknown rooms and players are no-ops.
	// The returned flag reports whether a removal actually happened.
	LeaveRoom(ctx context.Context, roomID, playerID string) (bool, error)
	StartGame(ctx context.Context, roomID, playerID string) error
	ResetRoom(ctx context.Context, roomID string) error

	// In-game commands
	Move(ctx context.Context, roomID, playerID string, direction engine.Vector)
	SetReady(ctx context.Context, roomID, playerID string, ready bool) error

	// Queries
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	RoomState(ctx context.Context, roomID string) (*engine.GameState, error)
	TopPlayers(ctx context.Context, n int) ([]leaderboard.RankedPlayer, error)
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
}

// ConfigManager supplies arena presets for room creation.
type ConfigManager interface {
	LoadPreset(name string) (*engine.Config, error)
	ListPresets() ([]*PresetInfo, error)
	GetDefault() *engine.Config
}
