package protocol

import "errors"

// Sentinel errors for the wire codec (C1). Callers should use errors.Is
// against these, since the concrete error returned is usually wrapped
// with additional context via fmt.Errorf("...: %w", ...).
var (
	// ErrIncompleteHeader means fewer than HeaderSize bytes were available.
	// It is never surfaced to a caller of the frame reader: FrameReader.Next
	// checks the buffered length itself and waits for more bytes instead.
	ErrIncompleteHeader = errors.New("protocol: incomplete header")

	// ErrUnknownPacket means the header's type tag is not a recognized
	// packet type. Fatal for the connection.
	ErrUnknownPacket = errors.New("protocol: unknown packet type")

	// ErrInvalidPayload means the payload could not be reconstructed into
	// the packet its type tag claims it to be, or exceeded the type's
	// MaxPayload. Fatal for the connection.
	ErrInvalidPayload = errors.New("protocol: invalid payload")

	// ErrBaseProtocol wraps any other decoding failure not covered above.
	// Fatal for the connection.
	ErrBaseProtocol = errors.New("protocol: base protocol error")
)
