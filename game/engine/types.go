package engine

// Status represents the lifecycle state of a room
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusPlaying  Status = "PLAYING"
	StatusFinished Status = "FINISHED"
)

// FoodType distinguishes the two kinds of food on the arena
type FoodType string

const (
	FoodNormal FoodType = "NORMAL"
	FoodSpeed  FoodType = "SPEED"
)

// Position represents a point on the continuous arena plane
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector represents a movement direction
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// The four legal movement directions. Diagonals are not allowed.
var (
	DirRight = Vector{X: 1, Y: 0}
	DirLeft  = Vector{X: -1, Y: 0}
	DirDown  = Vector{X: 0, Y: 1}
	DirUp    = Vector{X: 0, Y: -1}
)

// Directions lists the legal movement vectors in a stable order.
var Directions = []Vector{DirRight, DirLeft, DirDown, DirUp}

// IsUnitDirection reports whether v is one of the four legal axis directions.
func IsUnitDirection(v Vector) bool {
	for _, d := range Directions {
		if v == d {
			return true
		}
	}
	return false
}

// IsOpposite reports whether a and b point in exactly opposite directions.
func IsOpposite(a, b Vector) bool {
	return a.X == -b.X && a.Y == -b.Y && (a.X != 0 || a.Y != 0)
}

// Player is a snake competing in a room. Body is ordered head first and its
// length is bounded by Length, which grows as the player feeds.
type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Score     int        `json:"score"`
	Alive     bool       `json:"alive"`
	Ready     bool       `json:"ready"`
	Position  Position   `json:"position"`
	Direction Vector     `json:"direction"`
	Speed     float64    `json:"speed"`
	Body      []Position `json:"body"`
	Length    int        `json:"length"`
	IsHost    bool       `json:"isHost"`
}

// Head returns the player's current head position.
func (p *Player) Head() Position {
	if len(p.Body) == 0 {
		return p.Position
	}
	return p.Body[0]
}

// Food is a consumable item on the arena. Dead food is swept and replaced by
// the next spawn pass.
type Food struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Alive    bool     `json:"alive"`
	Type     FoodType `json:"type"`
	Value    int      `json:"value"`
}

// LobbyPlayer is the lobby-facing view of a room member.
type LobbyPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	IsHost bool   `json:"isHost"`
}

// RoomData is the lobby snapshot broadcast on membership changes.
type RoomData struct {
	RoomID         string        `json:"roomId"`
	MaxPlayers     int           `json:"maxPlayers"`
	CurrentPlayers int           `json:"currentPlayers"`
	Players        []LobbyPlayer `json:"players"`
	Status         Status        `json:"status"`
}

// GameState is the per-tick snapshot broadcast while a game is running. All
// slices are deep copies so the snapshot stays stable after the room mutates.
type GameState struct {
	Players []Player `json:"players"`
	Foods   []Food   `json:"foods"`
}

// PlayerResult is one row of the final standings of a finished game.
type PlayerResult struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Alive bool   `json:"alive"`
}
