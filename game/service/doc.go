// Package service exposes the command façade the transports call into. It
// maps commands onto the room registry and session controllers, performs the
// membership broadcasts, and reports typed failure reasons without ever
// panicking across the boundary.
package service
