package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T, packets ...Packet) []byte {
	t.Helper()
	var out []byte
	for _, p := range packets {
		raw, err := Serialize(p)
		require.NoError(t, err)
		out = append(out, raw...)
	}
	return out
}

func drain(t *testing.T, fr *FrameReader) []Packet {
	t.Helper()
	var got []Packet
	for {
		p, ok, err := fr.Next()
		require.NoError(t, err)
		if !ok {
			return got
		}
		got = append(got, p)
	}
}

func TestFrameReaderEmitsWholePacketsOnly(t *testing.T) {
	p1 := NewLoginPacket("alice", "pw")
	p2 := NewMessagePacket("alice", "hello")
	p3 := HeartbeatPacket{}

	full := encodeAll(t, p1, p2, p3)
	tail := []byte{Version, byte(TypeMessage), 0} // partial header of a 4th packet

	fr := NewFrameReader()
	fr.Feed(append(full, tail...))

	got := drain(t, fr)
	require.Len(t, got, 3)
	assert.Equal(t, p1, got[0])
	assert.Equal(t, p2, got[1])
	assert.Equal(t, p3, got[2])
	assert.Equal(t, len(tail), fr.Buffered())
}

func TestFrameReaderSplitAtEveryPosition(t *testing.T) {
	stream := encodeAll(t,
		NewLoginPacket("alice", "pw"),
		NewMessagePacket("alice", "hello world"),
		HeartbeatPacket{},
		NewResponsePacket(ResponseOK),
	)

	for split := 0; split <= len(stream); split++ {
		fr := NewFrameReader()
		fr.Feed(stream[:split])
		first := drain(t, fr)
		fr.Feed(stream[split:])
		second := drain(t, fr)

		all := append(first, second...)
		require.Lenf(t, all, 4, "split at %d", split)
	}
}

func TestFrameReaderFatalErrorOnUnknownType(t *testing.T) {
	bad := []byte{Version, 0xAB, 0, 0}
	fr := NewFrameReader()
	fr.Feed(bad)

	_, ok, err := fr.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnknownPacket)
}

func TestFrameReaderWaitsForIncompletePayload(t *testing.T) {
	raw, err := Serialize(NewMessagePacket("alice", "a longer message body"))
	require.NoError(t, err)

	fr := NewFrameReader()
	fr.Feed(raw[:len(raw)-3])

	_, ok, err := fr.Next()
	assert.False(t, ok)
	assert.NoError(t, err)

	fr.Feed(raw[len(raw)-3:])
	_, ok, err = fr.Next()
	assert.True(t, ok)
	assert.NoError(t, err)
}
