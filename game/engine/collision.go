package engine

import "math"

// segmentEpsilon is the tolerance for treating two body coordinates as the
// same point. Axis-aligned movement keeps retraced segments bit-identical,
// but boosted speeds can leave sub-pixel drift.
const segmentEpsilon = 1e-6

func samePoint(a, b Position) bool {
	return math.Abs(a.X-b.X) < segmentEpsilon && math.Abs(a.Y-b.Y) < segmentEpsilon
}

// resolveCollisions runs the per-tick collision rules over the player set and
// returns the ids of players killed this tick, in join order.
//
// The obstacle set is fixed at entry: a player that dies during this pass is
// still a valid obstacle for everyone else until the tick ends, so the
// outcome does not depend on resolution order. Corpses stop being obstacles
// on the next tick because their Alive flag is cleared here.
func (r *Room) resolveCollisions() []string {
	obstacles := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p.Alive {
			obstacles = append(obstacles, p)
		}
	}

	var killed []string
	for _, p := range obstacles {
		switch {
		case r.hitsWall(p):
			killed = append(killed, p.ID)
		case hitsSelf(p):
			killed = append(killed, p.ID)
		case hitsOther(p, obstacles):
			killed = append(killed, p.ID)
		}
	}

	for _, id := range killed {
		r.players[id].Alive = false
	}
	return killed
}

// hitsWall reports whether the head left the [0,width) x [0,height) arena.
func (r *Room) hitsWall(p *Player) bool {
	head := p.Head()
	return head.X < 0 || head.X >= r.Config.Width ||
		head.Y < 0 || head.Y >= r.Config.Height
}

// hitsSelf reports whether the head landed on any of the player's own
// non-head segments.
func hitsSelf(p *Player) bool {
	head := p.Head()
	for _, seg := range p.Body[1:] {
		if samePoint(head, seg) {
			return true
		}
	}
	return false
}

// hitsOther reports whether the head landed on any segment of another
// obstacle player, heads included.
func hitsOther(p *Player, obstacles []*Player) bool {
	head := p.Head()
	for _, other := range obstacles {
		if other.ID == p.ID {
			continue
		}
		for _, seg := range other.Body {
			if samePoint(head, seg) {
				return true
			}
		}
	}
	return false
}
