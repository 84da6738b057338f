package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/snake-arena/game/engine"
	"github.com/wricardo/snake-arena/game/leaderboard"
	"github.com/wricardo/snake-arena/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Snake Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Snake Arena - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Snake Arena is a realtime multiplayer snake game. Players join rooms over
WebSocket and steer their snakes; this interface is a read-mostly spectator
and operations surface.

AVAILABLE TOOLS:
- list_rooms: List all active rooms
- get_room: Get one room's lobby view
- room_state: Get the live snakes-and-food snapshot of a room
- leaderboard: Get the top ranked players
- list_presets: List the arena presets available at room creation
- reset_room: Recycle a finished room for a rematch

NOTE: Gameplay itself (joining, steering) happens over the WebSocket
transport; these tools observe and administer rooms.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List all active game rooms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the lobby view of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID to retrieve",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "room_state",
		Description: "Get the live game snapshot of a room (snakes and food)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleRoomState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Get the top ranked players across finished games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of players to return (default 10)",
				},
			},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available arena presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_room",
		Description: "Recycle a finished room so its players can rematch",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID to reset",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleResetRoom)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                 `json:"count"`
		Rooms []*service.RoomInfo `json:"rooms"`
	}

	err := c.apiCall("GET", "/api/rooms", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Rooms (%d):\n\n", response.Count)
	for _, room := range response.Rooms {
		result += fmt.Sprintf("- %s [%s] %d/%d players (Created: %s)\n",
			room.RoomID, room.Status, room.CurrentPlayers, room.MaxPlayers,
			room.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	roomID, _ := args["room_id"].(string)

	var room service.RoomInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/rooms/%s", roomID), nil, &room)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatRoomInfo(&room)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRoomState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	roomID, _ := args["room_id"].(string)

	var state engine.GameState
	err := c.apiCall("GET", fmt.Sprintf("/api/rooms/%s/state", roomID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatGameState(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 10
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		if n, ok := args["limit"].(float64); ok && int(n) > 0 {
			limit = int(n)
		}
	}

	var response struct {
		Count   int                        `json:"count"`
		Players []leaderboard.RankedPlayer `json:"players"`
	}

	err := c.apiCall("GET", fmt.Sprintf("/api/leaderboard?limit=%d", limit), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Top Players (%d):\n\n", response.Count)
	for _, p := range response.Players {
		result += fmt.Sprintf("%d. %s — best %d, wins %d, games %d\n",
			p.Rank, p.Name, p.BestScore, p.Wins, p.Games)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []*service.PresetInfo
	err := c.apiCall("GET", "/api/presets", nil, &presets)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Presets:\n\n"
	for _, preset := range presets {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Arena: %.0fx%.0f, Food target: %d\n\n",
			preset.Name, preset.ConfigID, preset.Description,
			preset.Width, preset.Height, preset.TargetFoodCount)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleResetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	roomID, _ := args["room_id"].(string)

	var response struct {
		Message string `json:"message"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/rooms/%s/reset", roomID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message), nil
}

// Formatting helpers

func formatRoomInfo(room *service.RoomInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Room: %s\nStatus: %s\nPlayers: %d/%d\nCreated: %s\n",
		room.RoomID, room.Status, room.CurrentPlayers, room.MaxPlayers,
		room.CreatedAt.Format("2006-01-02 15:04:05")))

	if room.Config != nil {
		b.WriteString(fmt.Sprintf("Arena: %.0fx%.0f (%s)\n",
			room.Config.Width, room.Config.Height, room.Config.Name))
	}

	b.WriteString("\nMembers:\n")
	for _, p := range room.Players {
		marker := ""
		if p.IsHost {
			marker = " (host)"
		}
		ready := ""
		if p.Ready {
			ready = " [ready]"
		}
		b.WriteString(fmt.Sprintf("- %s%s%s\n", p.Name, marker, ready))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Snakes (%d):\n", len(state.Players)))
	for _, p := range state.Players {
		status := "alive"
		if !p.Alive {
			status = "dead"
		}
		b.WriteString(fmt.Sprintf("- %s [%s] score=%d len=%d head=(%.0f,%.0f)\n",
			p.Name, status, p.Score, len(p.Body), p.Position.X, p.Position.Y))
	}

	b.WriteString(fmt.Sprintf("\nFood (%d):\n", len(state.Foods)))
	normal, speed := 0, 0
	for _, f := range state.Foods {
		if f.Type == engine.FoodSpeed {
			speed++
		} else {
			normal++
		}
	}
	b.WriteString(fmt.Sprintf("- normal: %d, speed: %d\n", normal, speed))

	return b.String()
}
