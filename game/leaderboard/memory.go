package leaderboard

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a process-local Store. Rankings reset with the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*RankedPlayer
}

// NewMemoryStore creates an empty in-memory leaderboard.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*RankedPlayer)}
}

// SubmitResults folds a finished game into the standings.
func (s *MemoryStore) SubmitResults(ctx context.Context, results []PlayerResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		e, ok := s.entries[r.PlayerID]
		if !ok {
			e = &RankedPlayer{PlayerID: r.PlayerID}
			s.entries[r.PlayerID] = e
		}
		e.Name = r.Name
		e.Games++
		if r.Winner {
			e.Wins++
		}
		if r.Score > e.BestScore {
			e.BestScore = r.Score
		}
	}
	return nil
}

// FetchTopPlayers returns the top n players ordered by best score, then wins,
// then name for stability.
func (s *MemoryStore) FetchTopPlayers(ctx context.Context, n int) ([]RankedPlayer, error) {
	s.mu.Lock()
	ranked := make([]RankedPlayer, 0, len(s.entries))
	for _, e := range s.entries {
		ranked = append(ranked, *e)
	}
	s.mu.Unlock()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].BestScore != ranked[j].BestScore {
			return ranked[i].BestScore > ranked[j].BestScore
		}
		if ranked[i].Wins != ranked[j].Wins {
			return ranked[i].Wins > ranked[j].Wins
		}
		return ranked[i].Name < ranked[j].Name
	})

	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}
