package engine

import (
	"math/rand"
	"testing"
)

func testConfig() *Config {
	return &Config{
		Name:            "test",
		Width:           200,
		Height:          200,
		BaseSpeed:       5,
		TargetFoodCount: 3,
		InitialLength:   5,
	}
}

func newTestRoom(t *testing.T, maxPlayers int) *Room {
	t.Helper()
	return NewRoom("ab12", maxPlayers, testConfig(), rand.New(rand.NewSource(42)))
}

func TestAddPlayer(t *testing.T) {
	t.Run("first member becomes host", func(t *testing.T) {
		room := newTestRoom(t, 4)

		p1, err := room.AddPlayer("p1", "alice")
		if err != nil {
			t.Fatalf("AddPlayer failed: %v", err)
		}
		if !p1.IsHost {
			t.Error("first member should be host")
		}

		p2, err := room.AddPlayer("p2", "bob")
		if err != nil {
			t.Fatalf("AddPlayer failed: %v", err)
		}
		if p2.IsHost {
			t.Error("second member should not be host")
		}
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		room := newTestRoom(t, 4)
		room.AddPlayer("p1", "alice")

		if _, err := room.AddPlayer("p1", "alice again"); err != ErrPlayerExists {
			t.Errorf("expected ErrPlayerExists, got %v", err)
		}
	})

	t.Run("enforces capacity", func(t *testing.T) {
		room := newTestRoom(t, 2)
		room.AddPlayer("p1", "alice")
		room.AddPlayer("p2", "bob")

		if _, err := room.AddPlayer("p3", "carol"); err != ErrRoomFull {
			t.Errorf("expected ErrRoomFull, got %v", err)
		}
		if room.PlayerCount() != 2 {
			t.Errorf("expected 2 players, got %d", room.PlayerCount())
		}
	})
}

func TestRemovePlayer(t *testing.T) {
	t.Run("host leaving promotes oldest member", func(t *testing.T) {
		room := newTestRoom(t, 4)
		room.AddPlayer("p1", "alice")
		room.AddPlayer("p2", "bob")
		room.AddPlayer("p3", "carol")

		removed, newHost, err := room.RemovePlayer("p1")
		if err != nil {
			t.Fatalf("RemovePlayer failed: %v", err)
		}
		if !removed.IsHost {
			t.Error("removed player should have been host")
		}
		if newHost == nil || newHost.ID != "p2" {
			t.Errorf("expected p2 promoted, got %+v", newHost)
		}
	})

	t.Run("non-host leaving keeps host", func(t *testing.T) {
		room := newTestRoom(t, 4)
		room.AddPlayer("p1", "alice")
		room.AddPlayer("p2", "bob")

		_, newHost, err := room.RemovePlayer("p2")
		if err != nil {
			t.Fatalf("RemovePlayer failed: %v", err)
		}
		if newHost != nil {
			t.Errorf("host should not have changed, got %+v", newHost)
		}
	})

	t.Run("succession follows join order after churn", func(t *testing.T) {
		room := newTestRoom(t, 4)
		room.AddPlayer("p1", "alice")
		room.AddPlayer("p2", "bob")
		room.AddPlayer("p3", "carol")
		room.RemovePlayer("p2")

		_, newHost, _ := room.RemovePlayer("p1")
		if newHost == nil || newHost.ID != "p3" {
			t.Errorf("expected p3 promoted, got %+v", newHost)
		}
	})

	t.Run("unknown player", func(t *testing.T) {
		room := newTestRoom(t, 4)
		if _, _, err := room.RemovePlayer("ghost"); err != ErrPlayerNotFound {
			t.Errorf("expected ErrPlayerNotFound, got %v", err)
		}
	})
}

func TestSetDirection(t *testing.T) {
	room := newTestRoom(t, 4)
	room.AddPlayer("p1", "alice")
	room.StartRound()

	p, _ := room.Player("p1")
	p.Direction = DirRight

	t.Run("accepts perpendicular turn", func(t *testing.T) {
		room.SetDirection("p1", DirUp)
		if p.Direction != DirUp {
			t.Errorf("expected up, got %+v", p.Direction)
		}
	})

	t.Run("ignores reversal", func(t *testing.T) {
		room.SetDirection("p1", DirDown)
		if p.Direction != DirUp {
			t.Errorf("reversal should be dropped, got %+v", p.Direction)
		}
	})

	t.Run("ignores non-unit vector", func(t *testing.T) {
		room.SetDirection("p1", Vector{X: 1, Y: 1})
		if p.Direction != DirUp {
			t.Errorf("diagonal should be dropped, got %+v", p.Direction)
		}
	})

	t.Run("ignores dead player", func(t *testing.T) {
		p.Alive = false
		room.SetDirection("p1", DirLeft)
		if p.Direction != DirUp {
			t.Errorf("dead player steering should be dropped, got %+v", p.Direction)
		}
	})
}

func TestStartRound(t *testing.T) {
	room := newTestRoom(t, 4)
	room.AddPlayer("p1", "alice")
	room.AddPlayer("p2", "bob")
	room.StartRound()

	for _, p := range room.Players() {
		if !p.Alive {
			t.Errorf("player %s should be alive", p.ID)
		}
		if p.Score != 0 {
			t.Errorf("player %s score should be 0, got %d", p.ID, p.Score)
		}
		if p.Speed != room.Config.BaseSpeed {
			t.Errorf("player %s speed should be base, got %g", p.ID, p.Speed)
		}
		if p.Position.X < SpawnPadding || p.Position.X > room.Config.Width-SpawnPadding ||
			p.Position.Y < SpawnPadding || p.Position.Y > room.Config.Height-SpawnPadding {
			t.Errorf("player %s spawned outside padded bounds: %+v", p.ID, p.Position)
		}
		if len(p.Body) != 1 || p.Body[0] != p.Position {
			t.Errorf("player %s body should start at spawn, got %+v", p.ID, p.Body)
		}
	}

	if room.AliveFoodCount() != room.Config.TargetFoodCount {
		t.Errorf("expected %d foods, got %d", room.Config.TargetFoodCount, room.AliveFoodCount())
	}
}

func TestResetRound(t *testing.T) {
	room := newTestRoom(t, 4)
	room.AddPlayer("p1", "alice")
	room.AddPlayer("p2", "bob")
	room.SetReady("p1", true)
	room.StartRound()

	p, _ := room.Player("p1")
	p.Score = 7
	p.Speed = 99

	room.ResetRound()

	if room.PlayerCount() != 2 {
		t.Errorf("membership should survive reset, got %d players", room.PlayerCount())
	}
	if p.Score != 0 || p.Alive || p.Ready || p.Body != nil {
		t.Errorf("transient state should be cleared: %+v", p)
	}
	if p.Speed != room.Config.BaseSpeed {
		t.Errorf("speed should be back to base, got %g", p.Speed)
	}
	if room.AliveFoodCount() != 0 {
		t.Errorf("food should be cleared, got %d", room.AliveFoodCount())
	}
}

func TestStandings(t *testing.T) {
	room := newTestRoom(t, 4)
	room.AddPlayer("p1", "alice")
	room.AddPlayer("p2", "bob")
	room.AddPlayer("p3", "carol")

	p1, _ := room.Player("p1")
	p2, _ := room.Player("p2")
	p3, _ := room.Player("p3")
	p1.Score = 3
	p2.Score = 8
	p3.Score = 3

	standings := room.Standings()
	got := []string{standings[0].ID, standings[1].ID, standings[2].ID}
	want := []string{"p2", "p1", "p3"} // score desc, join order tiebreak
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("standings order %v, want %v", got, want)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"arena too narrow", func(c *Config) { c.Width = 50 }, true},
		{"arena too short", func(c *Config) { c.Height = 50 }, true},
		{"zero speed", func(c *Config) { c.BaseSpeed = 0 }, true},
		{"speed exceeds padding", func(c *Config) { c.BaseSpeed = SpawnPadding }, true},
		{"zero food target", func(c *Config) { c.TargetFoodCount = 0 }, true},
		{"zero initial length", func(c *Config) { c.InitialLength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		if err := ValidateConfig(nil); err == nil {
			t.Error("nil config should be rejected")
		}
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Width: 500}
	cfg.ApplyDefaults()

	if cfg.Width != 500 {
		t.Errorf("explicit width should be kept, got %g", cfg.Width)
	}
	if cfg.Height != DefaultHeight {
		t.Errorf("zero height should default, got %g", cfg.Height)
	}
	if cfg.BaseSpeed != DefaultBaseSpeed || cfg.TargetFoodCount != DefaultTargetFoodCount || cfg.InitialLength != DefaultInitialLength {
		t.Errorf("zero fields should default: %+v", cfg)
	}
}
