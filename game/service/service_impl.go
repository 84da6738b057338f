package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/leaderboard"
	"github.com/wricardo/snake-arena/game/session"
)

// gameServiceImpl implements GameService on top of the room registry.
type gameServiceImpl struct {
	rooms       *session.Manager
	configs     ConfigManager
	results     leaderboard.Store
	broadcaster session.Broadcaster
}

// NewGameService wires the registry, preset manager, leaderboard
// collaborator, and event gateway into a GameService.
func NewGameService(rooms *session.Manager, configs ConfigManager, results leaderboard.Store, b session.Broadcaster) GameService {
	return &gameServiceImpl{
		rooms:       rooms,
		configs:     configs,
		results:     results,
		broadcaster: b,
	}
}

// CreateRoom creates a room and admits the creator as its host.
func (s *gameServiceImpl) CreateRoom(ctx context.Context, playerID, playerName string, playerLimit int, preset string) (*RoomInfo, error) {
	cfg, err := s.resolvePreset(preset)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(playerLimit, cfg)
	if err != nil {
		return nil, err
	}

	data, err := room.AddPlayer(playerID, playerName)
	if err != nil {
		// The freshly created room has no members, so reclaiming it cannot fail.
		s.rooms.Remove(room.ID)
		return nil, err
	}
	return roomInfo(room, data), nil
}

// JoinRoom admits a player into an existing WAITING room and notifies the
// other members.
func (s *gameServiceImpl) JoinRoom(ctx context.Context, roomID, playerID, playerName string) (*RoomInfo, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}

	data, err := room.AddPlayer(playerID, playerName)
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToRoom(roomID, session.EventPlayerJoined, map[string]interface{}{
		"playerId":   playerID,
		"playerName": playerName,
		"roomData":   data,
	})
	return roomInfo(room, data), nil
}

// LeaveRoom removes a member in any room state. Disconnects and quits route
// through here as well; leaving twice is a harmless no-op.
func (s *gameServiceImpl) LeaveRoom(ctx context.Context, roomID, playerID string) (bool, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return false, nil
	}

	res, err := room.RemovePlayer(playerID)
	if err != nil {
		if errors.Is(err, engine.ErrPlayerNotFound) {
			return false, nil
		}
		return false, err
	}

	if res.Empty {
		if err := s.rooms.Remove(roomID); err != nil && !errors.Is(err, session.ErrRoomNotFound) {
			return true, fmt.Errorf("failed to reclaim empty room %s: %w", roomID, err)
		}
		return true, nil
	}

	s.broadcaster.BroadcastToRoom(roomID, session.EventPlayerLeft, map[string]interface{}{
		"playerId": playerID,
		"roomData": res.RoomData,
		"wasHost":  res.WasHost,
	})
	if res.NewHostID != "" {
		s.broadcaster.BroadcastToRoom(roomID, session.EventNewHost, map[string]interface{}{
			"playerId": res.NewHostID,
			"roomData": res.RoomData,
		})
	}
	return true, nil
}

// StartGame begins the match. Requires an existing room, the requesting
// player to be its host, and at least two members.
func (s *gameServiceImpl) StartGame(ctx context.Context, roomID, playerID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return room.StartGame(playerID)
}

// ResetRoom recycles a room for a rematch.
func (s *gameServiceImpl) ResetRoom(ctx context.Context, roomID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return room.Reset()
}

// Move records a steering command. Invalid commands and unknown targets are
// silently ignored; there is no acknowledgement.
func (s *gameServiceImpl) Move(ctx context.Context, roomID, playerID string, direction engine.Vector) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return
	}
	room.SetDirection(playerID, direction)
}

// SetReady toggles the player's lobby ready flag.
func (s *gameServiceImpl) SetReady(ctx context.Context, roomID, playerID string, ready bool) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	return room.SetReady(playerID, ready)
}

// ListRooms returns all active rooms, oldest first.
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms := s.rooms.List()
	out := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomInfo(room, room.RoomData()))
	}
	return out, nil
}

// GetRoom returns one room's lobby view.
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	return roomInfo(room, room.RoomData()), nil
}

// RoomState returns a live game snapshot.
func (s *gameServiceImpl) RoomState(ctx context.Context, roomID string) (*engine.GameState, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	return room.GameState(), nil
}

// TopPlayers queries the leaderboard collaborator.
func (s *gameServiceImpl) TopPlayers(ctx context.Context, n int) ([]leaderboard.RankedPlayer, error) {
	return s.results.FetchTopPlayers(ctx, n)
}

// ListPresets lists the arena presets available at room creation.
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	return s.configs.ListPresets()
}

func (s *gameServiceImpl) resolvePreset(preset string) (*engine.Config, error) {
	if preset == "" {
		return s.configs.GetDefault(), nil
	}
	cfg, err := s.configs.LoadPreset(preset)
	if err != nil {
		return nil, fmt.Errorf("failed to load preset %q: %w", preset, err)
	}
	return cfg, nil
}

func roomInfo(room *session.Room, data engine.RoomData) *RoomInfo {
	return &RoomInfo{
		RoomData:  data,
		CreatedAt: room.CreatedAt,
		Config:    room.Config(),
	}
}
