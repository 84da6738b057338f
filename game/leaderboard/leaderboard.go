// Package leaderboard defines the score-persistence collaborator the game
// core reports results to. Persistent backends live outside this server; the
// in-memory store below backs development and tests.
package leaderboard

import "context"

// PlayerResult is one player's outcome from a finished game.
type PlayerResult struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Winner   bool   `json:"winner"`
}

// RankedPlayer is one row of the global leaderboard.
type RankedPlayer struct {
	Rank      int    `json:"rank"`
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	BestScore int    `json:"bestScore"`
	Wins      int    `json:"wins"`
	Games     int    `json:"games"`
}

// Store persists game results and answers leaderboard queries.
type Store interface {
	SubmitResults(ctx context.Context, results []PlayerResult) error
	FetchTopPlayers(ctx context.Context, n int) ([]RankedPlayer, error)
}
