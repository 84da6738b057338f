package engine

// advancePlayers moves every alive player one tick forward: the head advances
// by direction * speed, is pushed onto the body, and the tail is trimmed once
// the body exceeds the target length.
func (r *Room) advancePlayers() {
	for _, id := range r.order {
		p := r.players[id]
		if !p.Alive {
			continue
		}
		p.Position.X += p.Direction.X * p.Speed
		p.Position.Y += p.Direction.Y * p.Speed

		p.Body = append(p.Body, Position{})
		copy(p.Body[1:], p.Body)
		p.Body[0] = p.Position
		if len(p.Body) > p.Length {
			p.Body = p.Body[:p.Length]
		}
	}
}
