package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/leaderboard"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomNotEmpty    = errors.New("room is not empty")
	ErrInvalidRoomSize = errors.New("room size must be between 2 and 4")
)

// Manager is the process-wide room registry. It owns the collection of
// sessions but never mutates room internals directly.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	broadcaster Broadcaster
	results     leaderboard.Store
}

// NewManager creates an empty registry. Every room it creates shares the
// given broadcaster and leaderboard collaborator.
func NewManager(b Broadcaster, results leaderboard.Store) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		broadcaster: b,
		results:     results,
	}
}

// Create registers a new WAITING room and returns its controller.
func (m *Manager) Create(maxPlayers int, cfg *engine.Config) (*Room, error) {
	if maxPlayers == 0 {
		maxPlayers = engine.DefaultMaxPlayers
	}
	if maxPlayers < engine.MinRoomSize || maxPlayers > engine.MaxRoomSize {
		return nil, ErrInvalidRoomSize
	}
	if cfg == nil {
		cfg = engine.DefaultConfig()
	}
	cfg.ApplyDefaults()
	if err := engine.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid room config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.generateRoomID()
	for i := 0; i < 8; i++ {
		if _, taken := m.rooms[id]; !taken {
			break
		}
		id = m.generateRoomID()
	}
	if _, taken := m.rooms[id]; taken {
		return nil, fmt.Errorf("failed to allocate a room id")
	}

	rng := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	room := newRoom(engine.NewRoom(id, maxPlayers, cfg, rng), m.broadcaster, m.results)
	m.rooms[id] = room
	return room, nil
}

// Get retrieves a room by id.
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove reclaims a room. Removing a non-empty room is a programming error
// and is rejected.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	room, ok := m.rooms[id]
	if !ok {
		m.mu.Unlock()
		return ErrRoomNotFound
	}
	if room.PlayerCount() > 0 {
		m.mu.Unlock()
		return ErrRoomNotEmpty
	}
	delete(m.rooms, id)
	m.mu.Unlock()

	room.shutdown()
	return nil
}

// List returns all rooms, oldest first.
func (m *Manager) List() []*Room {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// Count returns the number of active rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Shutdown stops every room's loop and timers and clears the registry.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for id, room := range m.rooms {
		rooms = append(rooms, room)
		delete(m.rooms, id)
	}
	m.mu.Unlock()

	for _, room := range rooms {
		room.shutdown()
	}
}

// generateRoomID returns a random 4-character hex id. With ids this short,
// collisions are possible at scale; Create retries against the registry, but
// this is a weak uniqueness guarantee, not a cryptographic one.
func (m *Manager) generateRoomID() string {
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
