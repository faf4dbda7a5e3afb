package client

import (
	"context"
	"io"
	stdnet "net"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echosphere/internal/protocol"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeServer listens once on loopback and replies to the first LOGIN it
// receives with code, then just drains whatever else arrives.
func fakeServer(t *testing.T, code protocol.ResponseCode) string {
	t.Helper()

	listener, err := stdnet.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		header := make([]byte, protocol.HeaderSize)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		h, err := protocol.DecodeHeader(header)
		if err != nil {
			return
		}
		payload := make([]byte, h.PayloadLen)
		if h.PayloadLen > 0 {
			io.ReadFull(conn, payload)
		}

		raw, _ := protocol.Serialize(protocol.NewResponsePacket(code))
		conn.Write(raw)

		// Keep the connection open so heartbeats/messages don't error
		// out immediately; drain anything further until closed.
		buf := make([]byte, 4096)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	return listener.Addr().String()
}

func addrParts(t *testing.T, addr string) (string, uint16) {
	t.Helper()
	host, portStr, err := stdnet.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, uint16(port)
}

func TestJoinSucceedsOnOK(t *testing.T) {
	addr := fakeServer(t, protocol.ResponseOK)
	host, port := addrParts(t, addr)

	n := NewNetworking(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := n.Join(ctx, host, port, "alice", "")
	require.NoError(t, err)
	n.Disconnect()
}

func TestJoinFailsOnInvalidUsername(t *testing.T) {
	addr := fakeServer(t, protocol.ResponseInvalidUsername)
	host, port := addrParts(t, addr)

	n := NewNetworking(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := n.Join(ctx, host, port, "alice", "")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestJoinFailsOnTakenUsername(t *testing.T) {
	addr := fakeServer(t, protocol.ResponseTakenUsername)
	host, port := addrParts(t, addr)

	n := NewNetworking(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := n.Join(ctx, host, port, "alice", "")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestJoinFailsOnWrongPassword(t *testing.T) {
	addr := fakeServer(t, protocol.ResponseWrongPassword)
	host, port := addrParts(t, addr)

	n := NewNetworking(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := n.Join(ctx, host, port, "alice", "")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestJoinFailsOnUnreachableHost(t *testing.T) {
	n := NewNetworking(testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := n.Join(ctx, "127.0.0.1", 1, "alice", "")
	assert.ErrorIs(t, err, ErrDestinationUnreachable)
}

func TestDisconnectIsANoOpWhenNotConnected(t *testing.T) {
	n := NewNetworking(testLogger())
	n.Disconnect() // must not panic
}

func TestSendMessageFailsWhenNotConnected(t *testing.T) {
	n := NewNetworking(testLogger())
	err := n.SendMessage(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNotConnected)
}
