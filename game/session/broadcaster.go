package session

// Broadcaster is the narrow gateway the core emits events through. The
// websocket hub implements it; the core never sees connections or framing.
// Implementations must not block: broadcasts are fire-and-forget.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload interface{})
	EmitToConnection(connID, event string, payload interface{})
}

// Event names on the wire. Commands arrive under the same naming scheme; see
// transport/websocket for the inbound set.
const (
	EventRoomCreated     = "room-created"
	EventJoinedRoom      = "joined-room"
	EventPlayerJoined    = "player-joined"
	EventPlayerLeft      = "player-left"
	EventNewHost         = "new-host"
	EventGameStarted     = "game-started"
	EventGameState       = "game-state"
	EventGameEnded       = "game-ended"
	EventRoomReset       = "room-reset"
	EventQuitRoomSuccess = "quit-room-success"

	EventCreateFailed    = "create-failed"
	EventJoinFailed      = "join-failed"
	EventRoomFull        = "room-full"
	EventStartGameFailed = "start-game-failed"
	EventQuitRoomFailed  = "quit-room-failed"
)
