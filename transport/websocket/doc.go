// Package websocket is the realtime edge of the game server. It upgrades
// connections, parses the JSON command frames, dispatches them to the game
// service, and fans events out to every connection attached to a room.
package websocket
