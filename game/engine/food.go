package engine

import (
	"math"

	"github.com/google/uuid"
)

// consumeFoods tests every alive player's head against every alive food and
// applies the food's immediate effect. It returns the ids of players that ate
// SPEED food this tick; the timed boost itself is owned by the session layer
// so its expiry does not depend on tick cadence.
func (r *Room) consumeFoods() []string {
	var boosted []string
	for _, id := range r.order {
		p := r.players[id]
		if !p.Alive {
			continue
		}
		head := p.Head()
		for _, fid := range r.foodOrder {
			f := r.foods[fid]
			if !f.Alive {
				continue
			}
			if distance(head, f.Position) >= CollisionThreshold {
				continue
			}
			f.Alive = false
			switch f.Type {
			case FoodNormal:
				p.Score += f.Value
				p.Length += f.Value
			case FoodSpeed:
				// Value is zero: no growth, no score. Speed effect is timed.
				boosted = append(boosted, p.ID)
			}
		}
	}
	return boosted
}

// replenishFoods sweeps consumed food and spawns replacements until the
// alive count reaches the configured target.
func (r *Room) replenishFoods() {
	kept := r.foodOrder[:0]
	for _, id := range r.foodOrder {
		if r.foods[id].Alive {
			kept = append(kept, id)
		} else {
			delete(r.foods, id)
		}
	}
	r.foodOrder = kept

	for len(r.foodOrder) < r.Config.TargetFoodCount {
		r.spawnFood()
	}
}

// spawnFood creates one food at a uniform padded position. Roughly 80% spawn
// as NORMAL, the rest as SPEED.
func (r *Room) spawnFood() *Food {
	f := &Food{
		ID:       uuid.NewString(),
		Position: r.randomPosition(),
		Alive:    true,
	}
	if r.rng.Float64() < NormalFoodProbability {
		f.Type = FoodNormal
		f.Value = NormalFoodValue
	} else {
		f.Type = FoodSpeed
		f.Value = SpeedFoodValue
	}
	r.foods[f.ID] = f
	r.foodOrder = append(r.foodOrder, f.ID)
	return f
}

func (r *Room) clearFoods() {
	r.foods = make(map[string]*Food)
	r.foodOrder = nil
}

// AliveFoodCount returns the number of uneaten foods on the arena.
func (r *Room) AliveFoodCount() int {
	n := 0
	for _, f := range r.foods {
		if f.Alive {
			n++
		}
	}
	return n
}

func distance(a, b Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
