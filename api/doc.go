// Package api serves the REST surface: read-only room views, the
// leaderboard, arena presets, and the WebSocket upgrade endpoint.
package api
