package chatproto

import "errors"

// Sentinel errors for the connection protocol (C3).
var (
	// ErrConnectionClosed is returned from Send/SendAndWait once the
	// connection has been closed, and used to fail any outstanding
	// response waiters that have no more specific cause.
	ErrConnectionClosed = errors.New("chatproto: connection closed")

	// ErrNetwork wraps any transport-level write failure.
	ErrNetwork = errors.New("chatproto: network error")
)
