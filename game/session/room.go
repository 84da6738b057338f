package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/leaderboard"
)

var (
	ErrGameInProgress   = errors.New("game already in progress")
	ErrRoomFinished     = errors.New("room is finished, reset it first")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrNotHost          = errors.New("only the host can do that")
)

// RemoveResult describes the outcome of a membership removal so the caller
// can emit the right events.
type RemoveResult struct {
	PlayerID  string
	WasHost   bool
	NewHostID string
	Empty     bool
	RoomData  engine.RoomData
}

// GameEndPayload is the terminal event body for a finished game.
type GameEndPayload struct {
	Winner      *engine.PlayerResult  `json:"winner"`
	Leaderboard []engine.PlayerResult `json:"leaderboard"`
}

// Room is the session controller for one match. It exclusively owns its
// engine.Room and everything reachable from it; all access goes through the
// controller mutex, which is never held across a broadcast.
type Room struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	game   *engine.Room
	loop   *loop
	boosts map[string]*boost

	broadcaster Broadcaster
	results     leaderboard.Store
}

func newRoom(game *engine.Room, b Broadcaster, results leaderboard.Store) *Room {
	return &Room{
		ID:          game.ID,
		CreatedAt:   game.CreatedAt,
		game:        game,
		boosts:      make(map[string]*boost),
		broadcaster: b,
		results:     results,
	}
}

// AddPlayer admits a member into the lobby. Joins are only legal while the
// room is WAITING.
func (r *Room) AddPlayer(id, name string) (engine.RoomData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.game.Status {
	case engine.StatusPlaying:
		return engine.RoomData{}, ErrGameInProgress
	case engine.StatusFinished:
		return engine.RoomData{}, ErrRoomFinished
	}
	if _, err := r.game.AddPlayer(id, name); err != nil {
		return engine.RoomData{}, err
	}
	return r.game.RoomData(), nil
}

// RemovePlayer removes a member in any state, reassigning the host to the
// oldest remaining member when needed. During PLAYING the player's body stays
// an obstacle for the remainder of the current tick only; membership removal
// and tick execution are serialized on the controller mutex, so the body is
// simply gone from the next tick on.
func (r *Room) RemovePlayer(id string) (*RemoveResult, error) {
	r.mu.Lock()

	r.stopBoostTimerLocked(id)
	removed, newHost, err := r.game.RemovePlayer(id)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}

	empty := r.game.PlayerCount() == 0
	if empty {
		r.stopLoopLocked()
		// A tick already dispatched and waiting on the mutex must not step
		// the emptied room, so the game is over as of this removal.
		if r.game.Status == engine.StatusPlaying {
			r.game.Status = engine.StatusFinished
		}
	}

	res := &RemoveResult{
		PlayerID: id,
		WasHost:  removed.IsHost,
		Empty:    empty,
		RoomData: r.game.RoomData(),
	}
	if newHost != nil {
		res.NewHostID = newHost.ID
	}
	r.mu.Unlock()
	return res, nil
}

// SetReady toggles the lobby ready flag. Only meaningful while WAITING.
func (r *Room) SetReady(id string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Status != engine.StatusWaiting {
		return ErrGameInProgress
	}
	return r.game.SetReady(id, ready)
}

// SetDirection records a steering command for the next tick. Invalid or
// reversed directions are silently dropped, as are commands outside PLAYING.
func (r *Room) SetDirection(id string, dir engine.Vector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Status != engine.StatusPlaying {
		return
	}
	r.game.SetDirection(id, dir)
}

// StartGame transitions WAITING -> PLAYING and starts the tick loop. Only the
// host may start, and at least MinPlayers members must be present.
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()

	switch r.game.Status {
	case engine.StatusPlaying:
		r.mu.Unlock()
		return ErrGameInProgress
	case engine.StatusFinished:
		r.mu.Unlock()
		return ErrRoomFinished
	}
	p, ok := r.game.Player(requesterID)
	if !ok {
		r.mu.Unlock()
		return engine.ErrPlayerNotFound
	}
	if !p.IsHost {
		r.mu.Unlock()
		return ErrNotHost
	}
	if r.game.PlayerCount() < engine.MinPlayers {
		r.mu.Unlock()
		return ErrNotEnoughPlayers
	}

	r.game.StartRound()
	r.game.Status = engine.StatusPlaying
	r.loop = startLoop(engine.TickInterval, r.tick, r.abortTick)
	data := r.game.RoomData()
	r.mu.Unlock()

	r.broadcaster.BroadcastToRoom(r.ID, EventGameStarted, data)
	return nil
}

// Reset recycles the room for a rematch: FINISHED (or any state) back to
// WAITING, transient game fields cleared, membership preserved.
func (r *Room) Reset() error {
	r.mu.Lock()
	r.stopLoopLocked()
	r.stopAllBoostTimersLocked()
	r.game.ResetRound()
	r.game.Status = engine.StatusWaiting
	data := r.game.RoomData()
	r.mu.Unlock()

	r.broadcaster.BroadcastToRoom(r.ID, EventRoomReset, data)
	return nil
}

// tick runs one simulation step and broadcasts the results. The mutex is
// released before any broadcast.
func (r *Room) tick() {
	state, end := r.stepLocked()
	if state == nil {
		return
	}

	r.broadcaster.BroadcastToRoom(r.ID, EventGameState, state)
	if end != nil {
		r.broadcaster.BroadcastToRoom(r.ID, EventGameEnded, end)
		r.submitResults(end)
	}
}

func (r *Room) stepLocked() (*engine.GameState, *GameEndPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Status != engine.StatusPlaying {
		return nil, nil
	}

	res := r.game.Step()
	for _, id := range res.SpeedBoosted {
		r.applyBoostLocked(id)
	}
	state := r.game.Snapshot()

	if !res.Over {
		return state, nil
	}

	r.game.Status = engine.StatusFinished
	r.stopLoopLocked()
	r.stopAllBoostTimersLocked()

	end := &GameEndPayload{Leaderboard: r.game.Standings()}
	if res.Winner != nil {
		end.Winner = &engine.PlayerResult{
			ID:    res.Winner.ID,
			Name:  res.Winner.Name,
			Score: res.Winner.Score,
			Alive: true,
		}
	}
	return state, end
}

// abortTick handles a panic escaping a tick: the failure is confined to this
// room, which is stopped and finished as a draw.
func (r *Room) abortTick(recovered interface{}) {
	log.Printf("room %s: tick panic, stopping room: %v", r.ID, recovered)

	r.mu.Lock()
	if r.game.Status != engine.StatusPlaying {
		r.mu.Unlock()
		return
	}
	r.game.Status = engine.StatusFinished
	r.stopLoopLocked()
	r.stopAllBoostTimersLocked()
	end := &GameEndPayload{Leaderboard: r.game.Standings()}
	r.mu.Unlock()

	r.broadcaster.BroadcastToRoom(r.ID, EventGameEnded, end)
}

// submitResults reports final standings to the leaderboard collaborator.
func (r *Room) submitResults(end *GameEndPayload) {
	if r.results == nil {
		return
	}
	results := make([]leaderboard.PlayerResult, 0, len(end.Leaderboard))
	for _, row := range end.Leaderboard {
		results = append(results, leaderboard.PlayerResult{
			PlayerID: row.ID,
			Name:     row.Name,
			Score:    row.Score,
			Winner:   end.Winner != nil && end.Winner.ID == row.ID,
		})
	}
	if err := r.results.SubmitResults(context.Background(), results); err != nil {
		log.Printf("Warning: failed to submit results for room %s: %v", r.ID, err)
	}
}

// boost is one player's active SPEED effect. until is the authoritative
// expiry: a timer firing is only honored once the deadline has actually
// passed, so extending a window just as the old timer fires cannot restore
// base speed early.
type boost struct {
	timer *time.Timer
	until time.Time
}

// applyBoostLocked applies the SPEED food effect. A boost while already
// boosted extends the window without compounding the multiplier.
func (r *Room) applyBoostLocked(id string) {
	p, ok := r.game.Player(id)
	if !ok {
		return
	}
	if b, exists := r.boosts[id]; exists {
		b.until = time.Now().Add(engine.SpeedBoostDuration)
		b.timer.Reset(engine.SpeedBoostDuration)
		return
	}
	p.Speed = r.game.Config.BaseSpeed * engine.SpeedBoostFactor
	b := &boost{until: time.Now().Add(engine.SpeedBoostDuration)}
	b.timer = time.AfterFunc(engine.SpeedBoostDuration, func() {
		r.expireBoost(id)
	})
	r.boosts[id] = b
}

func (r *Room) expireBoost(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.boosts[id]
	if !exists {
		return
	}
	if time.Now().Before(b.until) {
		// The window was extended while this expiry was in flight; the
		// Reset in applyBoostLocked already re-armed the timer.
		return
	}
	delete(r.boosts, id)
	if p, ok := r.game.Player(id); ok {
		p.Speed = r.game.Config.BaseSpeed
	}
}

func (r *Room) stopBoostTimerLocked(id string) {
	if b, exists := r.boosts[id]; exists {
		b.timer.Stop()
		delete(r.boosts, id)
	}
}

func (r *Room) stopAllBoostTimersLocked() {
	for id, b := range r.boosts {
		b.timer.Stop()
		delete(r.boosts, id)
		if p, ok := r.game.Player(id); ok {
			p.Speed = r.game.Config.BaseSpeed
		}
	}
}

func (r *Room) stopLoopLocked() {
	if r.loop != nil {
		r.loop.Stop()
	}
}

// shutdown stops all timers. Called when the registry reclaims the room.
func (r *Room) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLoopLocked()
	r.stopAllBoostTimersLocked()
}

// Status returns the room's lifecycle state.
func (r *Room) Status() engine.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Status
}

// PlayerCount returns the current number of members.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.PlayerCount()
}

// HasPlayer reports whether the player is a member.
func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.game.Player(id)
	return ok
}

// RoomData returns the lobby snapshot.
func (r *Room) RoomData() engine.RoomData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.RoomData()
}

// GameState returns a deep copy of the live game state.
func (r *Room) GameState() *engine.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Snapshot()
}

// Config returns the arena configuration the room runs.
func (r *Room) Config() *engine.Config {
	return r.game.Config
}
