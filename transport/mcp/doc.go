// Package mcp exposes a spectator and operations surface over the Model
// Context Protocol. It is a thin proxy onto the REST API; gameplay traffic
// stays on the WebSocket transport.
package mcp
