package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/service"
	"github.com/wricardo/snake-arena/game/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Per-connection outbound buffer.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Message is the wire frame for both commands and events.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client represents one WebSocket connection. roomID and playerID are bound
// once the connection successfully creates or joins a room, and are only
// touched from the connection's read pump.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	id       string
	roomID   string
	playerID string
}

// Hub maintains the set of active connections and implements the core's
// broadcast gateway. Room state itself lives behind the game service; the hub
// only maps rooms to connections.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	service service.GameService
}

// NewHub creates a hub with no service bound yet; call SetService before
// serving connections.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// SetService binds the game service the hub dispatches commands to. The hub
// and service reference each other, so one side has to be bound late.
func (h *Hub) SetService(svc service.GameService) {
	h.service = svc
}

// ServeWS upgrades an HTTP request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.NewString(),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

// BroadcastToRoom sends an event to every connection attached to a room.
// Fire-and-forget: slow consumers lose the message rather than block a tick.
func (h *Hub) BroadcastToRoom(roomID, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Event: event, Data: payload})
	if err != nil {
		log.Printf("Failed to marshal %s broadcast: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.rooms[roomID] {
		select {
		case client.send <- data:
		default:
			log.Printf("Dropping %s for slow connection %s", event, client.id)
		}
	}
}

// EmitToConnection sends an event to a single connection.
func (h *Hub) EmitToConnection(connID, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Event: event, Data: payload})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("Dropping %s for slow connection %s", event, connID)
	}
}

// RoomConnections returns how many connections are attached to a room.
func (h *Hub) RoomConnections(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) attach(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][c.id] = c
}

func (h *Hub) detach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[c.roomID]; ok {
		delete(clients, c.id)
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	if clients, ok := h.rooms[c.roomID]; ok {
		delete(clients, c.id)
		if len(clients) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	close(c.send)
}

// readPump pumps commands from the connection into the game service. A
// transport-level disconnect routes through the same removal path as an
// explicit quit.
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error on %s: %v", c.id, err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Ignoring malformed frame from %s: %v", c.id, err)
			continue
		}
		c.handleCommand(msg)
	}
}

func (c *Client) disconnect() {
	if c.roomID != "" {
		if _, err := c.hub.service.LeaveRoom(context.Background(), c.roomID, c.playerID); err != nil {
			log.Printf("Warning: disconnect cleanup for %s failed: %v", c.playerID, err)
		}
	}
	c.hub.drop(c)
	c.conn.Close()
}

// Command payloads. Syntactic validation stops here; the core assumes
// well-typed input.
type createRoomPayload struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	PlayerLimit int    `json:"playerLimit"`
	Preset      string `json:"preset"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type roomPlayerPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type movePayload struct {
	RoomID    string        `json:"roomId"`
	PlayerID  string        `json:"playerId"`
	Direction engine.Vector `json:"direction"`
}

type readyPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type failurePayload struct {
	Reason string `json:"reason"`
}

func (c *Client) handleCommand(msg Message) {
	ctx := context.Background()

	switch msg.Event {
	case "create-room":
		var p createRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.emit(session.EventCreateFailed, failurePayload{Reason: "malformed payload"})
			return
		}
		info, err := c.hub.service.CreateRoom(ctx, p.PlayerID, p.PlayerName, p.PlayerLimit, p.Preset)
		if err != nil {
			c.emit(session.EventCreateFailed, failurePayload{Reason: err.Error()})
			return
		}
		c.roomID = info.RoomID
		c.playerID = p.PlayerID
		c.hub.attach(c, info.RoomID)
		c.emit(session.EventRoomCreated, map[string]interface{}{
			"roomId":   info.RoomID,
			"playerId": p.PlayerID,
			"isHost":   true,
			"roomData": info.RoomData,
		})

	case "join-room":
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.emit(session.EventJoinFailed, failurePayload{Reason: "malformed payload"})
			return
		}
		info, err := c.hub.service.JoinRoom(ctx, p.RoomID, p.PlayerID, p.PlayerName)
		if err != nil {
			if errors.Is(err, engine.ErrRoomFull) {
				c.emit(session.EventRoomFull, failurePayload{Reason: err.Error()})
			} else {
				c.emit(session.EventJoinFailed, failurePayload{Reason: err.Error()})
			}
			return
		}
		c.roomID = p.RoomID
		c.playerID = p.PlayerID
		c.hub.attach(c, p.RoomID)
		c.emit(session.EventJoinedRoom, map[string]interface{}{
			"roomId":   p.RoomID,
			"playerId": p.PlayerID,
			"roomData": info.RoomData,
		})

	case "leave-room":
		var p roomPlayerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.hub.service.LeaveRoom(ctx, p.RoomID, p.PlayerID)
		c.hub.detach(c)
		c.roomID = ""
		c.playerID = ""

	case "quit-room":
		var p roomPlayerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.emit(session.EventQuitRoomFailed, failurePayload{Reason: "malformed payload"})
			return
		}
		removed, err := c.hub.service.LeaveRoom(ctx, p.RoomID, p.PlayerID)
		if err != nil {
			c.emit(session.EventQuitRoomFailed, failurePayload{Reason: err.Error()})
			return
		}
		if !removed {
			c.emit(session.EventQuitRoomFailed, failurePayload{Reason: "not in room"})
			return
		}
		c.hub.detach(c)
		c.roomID = ""
		c.playerID = ""
		c.emit(session.EventQuitRoomSuccess, map[string]string{"roomId": p.RoomID, "playerId": p.PlayerID})

	case "start-game":
		var p roomPlayerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			c.emit(session.EventStartGameFailed, failurePayload{Reason: "malformed payload"})
			return
		}
		playerID := p.PlayerID
		if playerID == "" {
			playerID = c.playerID
		}
		if err := c.hub.service.StartGame(ctx, p.RoomID, playerID); err != nil {
			c.emit(session.EventStartGameFailed, failurePayload{Reason: err.Error()})
		}

	case "player-move":
		var p movePayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.hub.service.Move(ctx, p.RoomID, p.PlayerID, p.Direction)

	case "player-ready":
		var p readyPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.hub.service.SetReady(ctx, p.RoomID, p.PlayerID, p.Ready)

	case "reset-room":
		var p roomPlayerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		c.hub.service.ResetRoom(ctx, p.RoomID)

	default:
		log.Printf("Unknown command %q from %s", msg.Event, c.id)
	}
}

func (c *Client) emit(event string, payload interface{}) {
	c.hub.EmitToConnection(c.id, event, payload)
}

// writePump pumps events from the hub to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same websocket frame batch.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
