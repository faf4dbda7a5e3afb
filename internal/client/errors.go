package client

import "errors"

// Error taxonomy for the client networking layer (C7), mirroring
// client/errors.py's exception hierarchy as sentinel errors.
var (
	// ErrAlreadyConnected is returned by Join when called while already
	// connected to a server.
	ErrAlreadyConnected = errors.New("client: already connected to a server")

	// ErrNotConnected is returned by SendMessage when there is no active
	// connection.
	ErrNotConnected = errors.New("client: not connected to a server")

	// ErrDestinationUnreachable wraps a dial failure.
	ErrDestinationUnreachable = errors.New("client: destination unreachable")

	// ErrLogin is the generic login-rejected error, returned for response
	// codes without a more specific sentinel below. The specific sentinels
	// do not wrap ErrLogin.
	ErrLogin = errors.New("client: login rejected")

	// ErrInvalidUsername means the server rejected LOGIN because the
	// username failed validation.
	ErrInvalidUsername = errors.New("client: invalid username")

	// ErrUsernameTaken means the server rejected LOGIN because the
	// username is already in use.
	ErrUsernameTaken = errors.New("client: username already taken")

	// ErrWrongPassword means the server rejected LOGIN because of an
	// incorrect server password.
	ErrWrongPassword = errors.New("client: wrong server password")

	// ErrMessageRejected means the server responded to a MESSAGE with
	// anything other than OK.
	ErrMessageRejected = errors.New("client: message rejected by server")
)
