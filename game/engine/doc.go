// Package engine implements the core snake simulation: room state, per-tick
// movement, collision resolution, and the food economy.
//
// The engine is deliberately free of timers, locks, and I/O. A Room is plain
// state advanced by Step(); the session layer owns the tick loop, the lock
// discipline, and everything that talks to transports.
package engine
