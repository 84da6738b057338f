package engine

// StepResult reports what happened during one simulation tick.
type StepResult struct {
	// Killed lists players that died this tick, in join order.
	Killed []string
	// SpeedBoosted lists players that consumed SPEED food this tick.
	SpeedBoosted []string
	// Over is set when the round reached a terminal condition.
	Over bool
	// Winner is the last player standing, nil when the round is a draw or
	// still running.
	Winner *Player
	// Draw is set when every player died on the same tick.
	Draw bool
}

// Step advances the room by one tick. The phases run in a fixed order:
// movement, collision, feeding, food respawn, win check. Broadcasting is the
// caller's job, after it has taken a Snapshot.
//
// Step must only be called while the room is PLAYING.
func (r *Room) Step() *StepResult {
	res := &StepResult{}

	r.advancePlayers()
	res.Killed = r.resolveCollisions()
	res.SpeedBoosted = r.consumeFoods()
	r.replenishFoods()

	switch r.AliveCount() {
	case 0:
		res.Over = true
		res.Draw = true
	case 1:
		res.Over = true
		for _, p := range r.players {
			if p.Alive {
				res.Winner = p
				break
			}
		}
	}
	return res
}
