package server

import "errors"

var (
	// ErrServerAlreadyRunning is returned by Serve when called on a
	// Networking instance that is already serving.
	ErrServerAlreadyRunning = errors.New("server: already running")

	// ErrUserNotLoggedIn is an internal precondition violation: a caller
	// asked for liveness or roster information about a connection that
	// has not completed LOGIN yet.
	ErrUserNotLoggedIn = errors.New("server: user not logged in")
)
