// Command bot drives automated players against a running Snake Arena server.
// It creates a room, fills it with bots that steer randomly, starts the game,
// and reports the outcome. Useful for smoke-testing a deployment end to end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/snake-arena/game/engine"
)

func main() {
	cmd := &cli.Command{
		Name:  "bot",
		Usage: "run automated players against a snake-arena server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "ws://localhost:8080/ws",
				Usage: "WebSocket endpoint of the game server",
			},
			&cli.IntFlag{
				Name:  "players",
				Value: 2,
				Usage: "number of bots to put in the room (2-4)",
			},
			&cli.StringFlag{
				Name:  "preset",
				Value: "",
				Usage: "arena preset to create the room with",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 2 * time.Minute,
				Usage: "give up if the game has not ended by then",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	server := cmd.String("server")
	players := cmd.Int("players")
	if players < 2 || players > 4 {
		return fmt.Errorf("players must be between 2 and 4, got %d", players)
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	// The host creates the room first so the others have an ID to join.
	host, err := newBot(ctx, server, "bot-1")
	if err != nil {
		return err
	}
	defer host.close()

	roomID, err := host.createRoom(ctx, int(players), cmd.String("preset"))
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	log.Printf("room %s created by %s", roomID, host.name)

	bots := []*bot{host}
	for i := 2; i <= int(players); i++ {
		b, err := newBot(ctx, server, fmt.Sprintf("bot-%d", i))
		if err != nil {
			return err
		}
		defer b.close()
		if err := b.joinRoom(ctx, roomID); err != nil {
			return fmt.Errorf("%s join: %w", b.name, err)
		}
		log.Printf("%s joined room %s", b.name, roomID)
		bots = append(bots, b)
	}

	for _, b := range bots {
		b.send("player-ready", map[string]interface{}{
			"roomId": roomID, "playerId": b.playerID, "ready": true,
		})
	}
	host.send("start-game", map[string]interface{}{
		"roomId": roomID, "playerId": host.playerID,
	})

	g, ctx := errgroup.WithContext(ctx)
	for _, b := range bots {
		g.Go(func() error {
			return b.play(ctx, roomID)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if w := host.winner(); w != nil {
		log.Printf("winner: %s with score %d", w.Name, w.Score)
	} else {
		log.Printf("game ended in a draw")
	}
	return nil
}

// bot is one automated player on its own WebSocket connection.
type bot struct {
	name     string
	playerID string
	conn     *websocket.Conn

	events chan frame
	result *engine.PlayerResult
	ended  chan struct{}
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newBot(ctx context.Context, server, name string) (*bot, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, server, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", server, err)
	}

	b := &bot{
		name:     name,
		playerID: uuid.NewString(),
		conn:     conn,
		events:   make(chan frame, 64),
		ended:    make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *bot) close() {
	b.conn.Close()
}

// readLoop splits incoming websocket messages into event frames. The server
// batches queued events into one message separated by newlines.
func (b *bot) readLoop() {
	defer close(b.events)
	for {
		_, raw, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		for {
			var f frame
			if err := dec.Decode(&f); err != nil {
				if err != io.EOF {
					log.Printf("%s: bad frame: %v", b.name, err)
				}
				break
			}
			if f.Event == "game-ended" {
				b.recordOutcome(f.Data)
				close(b.ended)
			}
			select {
			case b.events <- f:
			default:
			}
		}
	}
}

func (b *bot) recordOutcome(data json.RawMessage) {
	var payload struct {
		Winner *engine.PlayerResult `json:"winner"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("%s: bad game-ended payload: %v", b.name, err)
		return
	}
	b.result = payload.Winner
}

func (b *bot) winner() *engine.PlayerResult {
	return b.result
}

func (b *bot) send(event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.conn.WriteJSON(frame{Event: event, Data: data})
}

// await blocks until the named event arrives, or fails on the matching
// failure event.
func (b *bot) await(ctx context.Context, want string, failures ...string) (json.RawMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-b.events:
			if !ok {
				return nil, fmt.Errorf("connection closed waiting for %s", want)
			}
			if f.Event == want {
				return f.Data, nil
			}
			for _, failure := range failures {
				if f.Event == failure {
					return nil, fmt.Errorf("server answered %s: %s", f.Event, string(f.Data))
				}
			}
		}
	}
}

func (b *bot) createRoom(ctx context.Context, playerLimit int, preset string) (string, error) {
	err := b.send("create-room", map[string]interface{}{
		"playerId":    b.playerID,
		"playerName":  b.name,
		"playerLimit": playerLimit,
		"preset":      preset,
	})
	if err != nil {
		return "", err
	}

	data, err := b.await(ctx, "room-created", "create-failed")
	if err != nil {
		return "", err
	}
	var reply struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &reply); err != nil {
		return "", err
	}
	return reply.RoomID, nil
}

func (b *bot) joinRoom(ctx context.Context, roomID string) error {
	err := b.send("join-room", map[string]interface{}{
		"roomId":     roomID,
		"playerId":   b.playerID,
		"playerName": b.name,
	})
	if err != nil {
		return err
	}
	_, err = b.await(ctx, "joined-room", "join-failed", "room-full")
	return err
}

// play steers randomly until the game ends. Turns are picked from the legal
// directions so the server never has to reject one.
func (b *bot) play(ctx context.Context, roomID string) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.ended:
			return nil
		case <-ticker.C:
			dir := engine.Directions[rng.Intn(len(engine.Directions))]
			b.send("player-move", map[string]interface{}{
				"roomId":    roomID,
				"playerId":  b.playerID,
				"direction": dir,
			})
		}
	}
}
