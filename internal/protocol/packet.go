// Package protocol implements the EchoSphere wire codec (C1) and frame
// reader (C2): a 4-byte header (version, type tag, big-endian uint16
// payload length) followed by a type-bounded payload.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Version is the only protocol version this implementation understands.
const Version byte = 1

// HeaderSize is the fixed size, in bytes, of every packet header.
const HeaderSize = 4

// Type identifies a packet's wire tag.
type Type byte

const (
	TypeHeartbeat Type = 1
	TypeLogin     Type = 2
	TypeMessage   Type = 3
	TypeResponse  Type = 4
	TypeLogout    Type = 5
)

func (t Type) String() string {
	switch t {
	case TypeHeartbeat:
		return "HEARTBEAT"
	case TypeLogin:
		return "LOGIN"
	case TypeMessage:
		return "MESSAGE"
	case TypeResponse:
		return "RESPONSE"
	case TypeLogout:
		return "LOGOUT"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", byte(t))
	}
}

// ResponseCode is the single-byte payload of a RESPONSE packet.
type ResponseCode byte

const (
	ResponseOK               ResponseCode = 0
	ResponseInvalidUsername  ResponseCode = 1
	ResponseTakenUsername    ResponseCode = 2
	ResponseInvalidMessage   ResponseCode = 3
	ResponseWrongPassword    ResponseCode = 4
	ResponseGenericError     ResponseCode = 5
)

func (r ResponseCode) String() string {
	switch r {
	case ResponseOK:
		return "OK"
	case ResponseInvalidUsername:
		return "INVALID_USERNAME"
	case ResponseTakenUsername:
		return "TAKEN_USERNAME"
	case ResponseInvalidMessage:
		return "INVALID_MESSAGE"
	case ResponseWrongPassword:
		return "WRONG_PASSWORD"
	case ResponseGenericError:
		return "GENERIC_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", byte(r))
	}
}

// Packet is implemented by every concrete packet type. Serialize/payload
// reconstruction is dispatched by Type, a tag-indexed table rather than
// runtime type assertions (see the descriptor table below).
type Packet interface {
	Type() Type
	Payload() []byte
}

// maxPayload returns the maximum payload length allowed for t, or -1 if
// t is not a recognized type.
func maxPayload(t Type) int {
	d, ok := descriptors[t]
	if !ok {
		return -1
	}
	return d.maxPayload
}

// descriptor bundles a packet type's payload bound with its payload
// decoder. This is the Go equivalent of the original source's
// @register_packet-decorated PACKET_CLASS_MAP: a table built once at
// package init instead of relying on import-time side effects or
// runtime reflection.
type descriptor struct {
	maxPayload int
	fromPayload func(payload []byte) (Packet, error)
}

var descriptors = map[Type]descriptor{
	TypeHeartbeat: {maxPayload: 0, fromPayload: func(payload []byte) (Packet, error) {
		return HeartbeatPacket{}, nil
	}},
	TypeLogin: {maxPayload: 256, fromPayload: func(payload []byte) (Packet, error) {
		return loginFromPayload(payload)
	}},
	TypeMessage: {maxPayload: 4096, fromPayload: func(payload []byte) (Packet, error) {
		return messageFromPayload(payload)
	}},
	TypeResponse: {maxPayload: 1, fromPayload: func(payload []byte) (Packet, error) {
		return responseFromPayload(payload)
	}},
	TypeLogout: {maxPayload: 0, fromPayload: func(payload []byte) (Packet, error) {
		return LogoutPacket{}, nil
	}},
}

// Header is the decoded form of a packet's 4-byte header.
type Header struct {
	Type         Type
	PayloadLen   uint16
}

// DecodeHeader decodes the first HeaderSize bytes of b.
//
// Returns ErrIncompleteHeader if b is shorter than HeaderSize, and
// ErrUnknownPacket if the type tag is not recognized.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, ErrIncompleteHeader
	}
	if b[0] != Version {
		return Header{}, fmt.Errorf("%w: unsupported protocol version %d", ErrUnknownPacket, b[0])
	}
	t := Type(b[1])
	if _, ok := descriptors[t]; !ok {
		return Header{}, fmt.Errorf("%w: tag %d", ErrUnknownPacket, b[1])
	}
	length := binary.BigEndian.Uint16(b[2:4])
	return Header{Type: t, PayloadLen: length}, nil
}

// FromPayload reconstructs the typed packet for t from its raw payload.
//
// Returns ErrInvalidPayload if the payload cannot be decoded into the
// packet type t names, or ErrBaseProtocol for any other failure.
func FromPayload(t Type, payload []byte) (Packet, error) {
	d, ok := descriptors[t]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownPacket, byte(t))
	}
	if len(payload) > d.maxPayload {
		return nil, fmt.Errorf("%w: %s payload of %d bytes exceeds max %d", ErrInvalidPayload, t, len(payload), d.maxPayload)
	}
	p, err := d.fromPayload(payload)
	if err != nil {
		if !errors.Is(err, ErrInvalidPayload) {
			return nil, fmt.Errorf("%w: %v", ErrBaseProtocol, err)
		}
		return nil, err
	}
	return p, nil
}

// Serialize encodes p into its wire form: header || payload.
//
// Fails with ErrInvalidPayload if p's payload exceeds its type's max
// payload length.
func Serialize(p Packet) ([]byte, error) {
	payload := p.Payload()
	max := maxPayload(p.Type())
	if max < 0 {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownPacket, byte(p.Type()))
	}
	if len(payload) > max {
		return nil, fmt.Errorf("%w: %s payload of %d bytes exceeds max %d", ErrInvalidPayload, p.Type(), len(payload), max)
	}

	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = Version
	buf[1] = byte(p.Type())
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// splitOnce splits s on the first '|' into exactly two fields. This
// resolves the Open Question in spec.md §9: a payload containing more
// than one '|' is rejected with ErrInvalidPayload rather than silently
// dropping data after the second delimiter, while every payload with
// exactly one '|' decodes the same way original_source's str.split("|")
// would have.
func splitOnce(s string) (string, string, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected exactly one '|' delimiter, found %d field(s)", ErrInvalidPayload, len(parts))
	}
	return parts[0], parts[1], nil
}

// HeartbeatPacket is a zero-payload liveness ping sent by clients.
type HeartbeatPacket struct{}

func (HeartbeatPacket) Type() Type      { return TypeHeartbeat }
func (HeartbeatPacket) Payload() []byte { return nil }

// LogoutPacket signals a graceful client-initiated disconnect.
type LogoutPacket struct{}

func (LogoutPacket) Type() Type      { return TypeLogout }
func (LogoutPacket) Payload() []byte { return nil }

// LoginPacket carries a username and optional password, client → server.
type LoginPacket struct {
	Username string
	Password string
}

// NewLoginPacket builds a LoginPacket. An empty password denotes "no
// password supplied".
func NewLoginPacket(username, password string) LoginPacket {
	return LoginPacket{Username: username, Password: password}
}

func (LoginPacket) Type() Type { return TypeLogin }

func (p LoginPacket) Payload() []byte {
	return []byte(p.Username + "|" + p.Password)
}

func loginFromPayload(payload []byte) (Packet, error) {
	username, password, err := splitOnce(string(payload))
	if err != nil {
		return nil, err
	}
	return LoginPacket{Username: username, Password: password}, nil
}

// MessagePacket is bi-directional chat text. An empty Username denotes
// a system-originated message.
type MessagePacket struct {
	Username string
	Text     string
}

// NewMessagePacket builds a MessagePacket. Pass "" for username to mark
// the message as system-originated.
func NewMessagePacket(username, text string) MessagePacket {
	return MessagePacket{Username: username, Text: text}
}

func (MessagePacket) Type() Type { return TypeMessage }

func (p MessagePacket) Payload() []byte {
	return []byte(p.Username + "|" + p.Text)
}

// IsSystem reports whether this message originated on the server rather
// than from a logged-in user.
func (p MessagePacket) IsSystem() bool {
	return p.Username == ""
}

func messageFromPayload(payload []byte) (Packet, error) {
	username, text, err := splitOnce(string(payload))
	if err != nil {
		return nil, err
	}
	return MessagePacket{Username: username, Text: text}, nil
}

// ResponsePacket is a server → client single-byte status reply.
type ResponsePacket struct {
	Code ResponseCode
}

// NewResponsePacket builds a ResponsePacket.
func NewResponsePacket(code ResponseCode) ResponsePacket {
	return ResponsePacket{Code: code}
}

func (ResponsePacket) Type() Type { return TypeResponse }

func (p ResponsePacket) Payload() []byte {
	return []byte{byte(p.Code)}
}

func responseFromPayload(payload []byte) (Packet, error) {
	if len(payload) != 1 {
		return nil, fmt.Errorf("%w: response payload must be exactly 1 byte, got %d", ErrInvalidPayload, len(payload))
	}
	code := ResponseCode(payload[0])
	switch code {
	case ResponseOK, ResponseInvalidUsername, ResponseTakenUsername, ResponseInvalidMessage, ResponseWrongPassword, ResponseGenericError:
		return ResponsePacket{Code: code}, nil
	default:
		return nil, fmt.Errorf("%w: unknown response code %d", ErrInvalidPayload, code)
	}
}
