package server

import (
	"time"

	"github.com/google/uuid"

	"echosphere/internal/chatproto"
)

// connState is the server-side metadata kept for a single connection,
// equivalent to server_networking.py's Connection helper class. All
// fields are guarded by Networking.mu rather than a per-state lock: the
// server's roster operations (login atomicity, heartbeat sweeps) need to
// read and write several connections' state under one critical section
// anyway, so a second layer of locking would only invite deadlocks.
type connState struct {
	sessionID     uuid.UUID
	username      string
	connectedAt   time.Time
	lastHeartbeat time.Time
}

// isAlive reports whether a logged-in connection has sent a heartbeat
// within the last interval, relative to now, or, if it has never sent
// one, was accepted within the last interval.
func isAlive(state *connState, now time.Time, interval time.Duration) bool {
	base := state.connectedAt
	if !state.lastHeartbeat.IsZero() {
		base = state.lastHeartbeat
	}
	return now.Sub(base) <= interval
}

// UserJoinedEvent is emitted once a connection completes LOGIN.
type UserJoinedEvent struct {
	Conn     *chatproto.Connection
	Username string
}

// UserLeftEvent is emitted when a logged-in user logs out (Err is nil)
// or is disconnected, either by a transport failure or a dead heartbeat
// (Err is non-nil).
type UserLeftEvent struct {
	Conn     *chatproto.Connection
	Username string
	Err      error
}

// MessageReceivedEvent is emitted for every MESSAGE packet accepted from
// a logged-in user.
type MessageReceivedEvent struct {
	Sender string
	Text   string
}
