// Package session owns match lifecycle: the per-room controller (state
// machine, membership, host succession, speed boosts), the fixed-tick loop,
// and the process-wide room registry.
package session
