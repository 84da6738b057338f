package engine

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrPlayerExists   = errors.New("player already in room")
	ErrPlayerNotFound = errors.New("player not found")
)

// Room is the authoritative state of one match: its members in join order,
// the live food set, and the arena configuration. Room methods are not
// goroutine safe; the owning session controller serializes access.
type Room struct {
	ID         string
	Status     Status
	MaxPlayers int
	Config     *Config
	CreatedAt  time.Time

	players map[string]*Player
	// order preserves membership insertion order. Host succession picks the
	// oldest remaining member, so this must not depend on map iteration.
	order []string

	foods     map[string]*Food
	foodOrder []string

	rng *rand.Rand
}

// NewRoom creates an empty WAITING room. The rng is injected so tests can
// drive spawning deterministically.
func NewRoom(id string, maxPlayers int, cfg *Config, rng *rand.Rand) *Room {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Room{
		ID:         id,
		Status:     StatusWaiting,
		MaxPlayers: maxPlayers,
		Config:     cfg,
		CreatedAt:  time.Now(),
		players:    make(map[string]*Player),
		foods:      make(map[string]*Food),
		rng:        rng,
	}
}

// AddPlayer adds a new member. The first member becomes host.
func (r *Room) AddPlayer(id, name string) (*Player, error) {
	if _, exists := r.players[id]; exists {
		return nil, ErrPlayerExists
	}
	if len(r.players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	p := &Player{
		ID:     id,
		Name:   name,
		Alive:  false,
		IsHost: len(r.players) == 0,
		Speed:  r.Config.BaseSpeed,
		Length: r.Config.InitialLength,
	}
	r.players[id] = p
	r.order = append(r.order, id)
	return p, nil
}

// RemovePlayer removes a member and, if it was the host and others remain,
// promotes the oldest remaining member. Returns the removed player and the
// new host (nil if the host did not change).
func (r *Room) RemovePlayer(id string) (removed, newHost *Player, err error) {
	p, exists := r.players[id]
	if !exists {
		return nil, nil, ErrPlayerNotFound
	}

	delete(r.players, id)
	for i, pid := range r.order {
		if pid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if p.IsHost && len(r.order) > 0 {
		newHost = r.players[r.order[0]]
		newHost.IsHost = true
	}
	return p, newHost, nil
}

// Player returns a member by id.
func (r *Room) Player(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Players returns the members in join order.
func (r *Room) Players() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// PlayerCount returns the current number of members.
func (r *Room) PlayerCount() int {
	return len(r.players)
}

// AliveCount returns the number of members still alive in the current round.
func (r *Room) AliveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// SetReady toggles a member's lobby ready flag.
func (r *Room) SetReady(id string, ready bool) error {
	p, ok := r.players[id]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Ready = ready
	return nil
}

// SetDirection applies a steering command. Invalid vectors and 180-degree
// reversals are silently ignored; the change takes effect on the next tick.
func (r *Room) SetDirection(id string, dir Vector) {
	p, ok := r.players[id]
	if !ok || !p.Alive {
		return
	}
	if !IsUnitDirection(dir) || IsOpposite(dir, p.Direction) {
		return
	}
	p.Direction = dir
}

// StartRound initializes every member for a fresh game: random spawn and
// heading, base speed, empty score, and a full food set.
func (r *Room) StartRound() {
	for _, id := range r.order {
		p := r.players[id]
		p.Score = 0
		p.Alive = true
		p.Speed = r.Config.BaseSpeed
		p.Length = r.Config.InitialLength
		p.Direction = Directions[r.rng.Intn(len(Directions))]
		p.Position = r.randomPosition()
		p.Body = []Position{p.Position}
	}
	r.clearFoods()
	r.replenishFoods()
}

// ResetRound clears per-round transient state while preserving membership
// and lobby flags. Used by the FINISHED -> WAITING transition.
func (r *Room) ResetRound() {
	for _, p := range r.players {
		p.Score = 0
		p.Alive = false
		p.Speed = r.Config.BaseSpeed
		p.Length = r.Config.InitialLength
		p.Body = nil
		p.Ready = false
	}
	r.clearFoods()
}

// randomPosition picks a uniform point inside the padded arena bounds.
func (r *Room) randomPosition() Position {
	return Position{
		X: SpawnPadding + r.rng.Float64()*(r.Config.Width-2*SpawnPadding),
		Y: SpawnPadding + r.rng.Float64()*(r.Config.Height-2*SpawnPadding),
	}
}

// RoomData builds the lobby snapshot broadcast on membership changes.
func (r *Room) RoomData() RoomData {
	players := make([]LobbyPlayer, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		players = append(players, LobbyPlayer{
			ID:     p.ID,
			Name:   p.Name,
			Ready:  p.Ready,
			IsHost: p.IsHost,
		})
	}
	return RoomData{
		RoomID:         r.ID,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: len(r.players),
		Players:        players,
		Status:         r.Status,
	}
}

// Snapshot deep-copies the live game state so it can be marshaled and
// broadcast after the room lock is released.
func (r *Room) Snapshot() *GameState {
	state := &GameState{
		Players: make([]Player, 0, len(r.order)),
		Foods:   make([]Food, 0, len(r.foodOrder)),
	}
	for _, id := range r.order {
		p := r.players[id]
		cp := *p
		cp.Body = append([]Position(nil), p.Body...)
		state.Players = append(state.Players, cp)
	}
	for _, id := range r.foodOrder {
		state.Foods = append(state.Foods, *r.foods[id])
	}
	return state
}

// Standings returns the final results ordered by score descending, with join
// order as a deterministic tiebreak.
func (r *Room) Standings() []PlayerResult {
	results := make([]PlayerResult, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		results = append(results, PlayerResult{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
			Alive: p.Alive,
		})
	}
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
	return results
}
