package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, p Packet) Packet {
	t.Helper()
	raw, err := Serialize(p)
	require.NoError(t, err)

	header, err := DecodeHeader(raw[:HeaderSize])
	require.NoError(t, err)
	assert.Equal(t, p.Type(), header.Type)

	got, err := FromPayload(header.Type, raw[HeaderSize:])
	require.NoError(t, err)
	return got
}

func TestRoundTripAllTypes(t *testing.T) {
	cases := []Packet{
		HeartbeatPacket{},
		LogoutPacket{},
		NewLoginPacket("alice", "hunter2"),
		NewLoginPacket("alice", ""),
		NewMessagePacket("alice", "hello there"),
		NewMessagePacket("", "system message"),
		NewResponsePacket(ResponseOK),
		NewResponsePacket(ResponseWrongPassword),
	}

	for _, p := range cases {
		got := roundTrip(t, p)
		assert.Equal(t, p, got)
	}
}

func TestSerializeRejectsOversizedPayload(t *testing.T) {
	huge := strings.Repeat("a", 5000)
	_, err := Serialize(NewMessagePacket("alice", huge))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestDecodeHeaderIncomplete(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrIncompleteHeader)
}

func TestDecodeHeaderUnknownTag(t *testing.T) {
	_, err := DecodeHeader([]byte{Version, 0xFF, 0, 0})
	assert.ErrorIs(t, err, ErrUnknownPacket)
}

func TestLoginPayloadMissingDelimiterIsInvalid(t *testing.T) {
	_, err := FromPayload(TypeLogin, []byte("nodelimiterhere"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMessagePayloadWithExtraDelimiterIsInvalid(t *testing.T) {
	_, err := FromPayload(TypeMessage, []byte("alice|hello|world"))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMessageEmptyUsernameIsSystem(t *testing.T) {
	p, err := FromPayload(TypeMessage, []byte("|a system message"))
	require.NoError(t, err)
	msg := p.(MessagePacket)
	assert.True(t, msg.IsSystem())
	assert.Equal(t, "a system message", msg.Text)
}

func TestLoginEmptyPasswordMeansNoPassword(t *testing.T) {
	p, err := FromPayload(TypeLogin, []byte("bob|"))
	require.NoError(t, err)
	login := p.(LoginPacket)
	assert.Equal(t, "bob", login.Username)
	assert.Equal(t, "", login.Password)
}

func TestResponseUnknownCodeIsInvalid(t *testing.T) {
	_, err := FromPayload(TypeResponse, []byte{99})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestResponseWrongLengthIsInvalid(t *testing.T) {
	_, err := FromPayload(TypeResponse, []byte{})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = FromPayload(TypeResponse, []byte{0, 1})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestMaxPayloadBounds(t *testing.T) {
	assert.Equal(t, 0, maxPayload(TypeHeartbeat))
	assert.Equal(t, 256, maxPayload(TypeLogin))
	assert.Equal(t, 4096, maxPayload(TypeMessage))
	assert.Equal(t, 1, maxPayload(TypeResponse))
	assert.Equal(t, 0, maxPayload(TypeLogout))
	assert.Equal(t, -1, maxPayload(Type(99)))
}

func TestErrorsAreDistinguishable(t *testing.T) {
	assert.False(t, errors.Is(ErrIncompleteHeader, ErrUnknownPacket))
	assert.False(t, errors.Is(ErrInvalidPayload, ErrBaseProtocol))
}
