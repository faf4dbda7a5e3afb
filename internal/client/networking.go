// Package client implements the client-side networking layer (C7):
// joining a server, sending messages, periodic heartbeats, and the
// connection-lost/message-received events a UI layer subscribes to.
package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"echosphere/internal/chatproto"
	"echosphere/internal/events"
	"echosphere/internal/protocol"
)

// HeartbeatInterval matches the server's liveness window.
const HeartbeatInterval = 15 * time.Second

// Networking is a single outbound connection to an EchoSphere server.
// It emits OnMessageReceived for every inbound MESSAGE, and
// OnConnectionLost exactly once per Join, only for an *unexpected* loss
// (Disconnect does not trigger it).
type Networking struct {
	log *logrus.Logger

	OnMessageReceived events.Emitter[protocol.MessagePacket]
	OnConnectionLost  events.Emitter[error]

	mu         sync.Mutex
	conn       *chatproto.Connection
	username   string
	cancelBeat context.CancelFunc
}

// NewNetworking builds an unconnected Networking.
func NewNetworking(log *logrus.Logger) *Networking {
	return &Networking{log: log}
}

// Join dials host:port, logs in as username (with optional
// serverPassword) and, on success, starts the periodic heartbeat.
//
// Fails with ErrAlreadyConnected if already joined, ErrDestinationUnreachable
// if the dial fails, or one of ErrInvalidUsername/ErrUsernameTaken/
// ErrWrongPassword/ErrLogin depending on the server's response.
func (n *Networking) Join(ctx context.Context, host string, port uint16, username, serverPassword string) error {
	n.mu.Lock()
	if n.conn != nil {
		n.mu.Unlock()
		return ErrAlreadyConnected
	}
	n.mu.Unlock()

	addr := fmt.Sprintf("%s:%d", host, port)
	sessionID := uuid.New()
	n.log.WithFields(logrus.Fields{"session": sessionID, "addr": addr}).Info("joining server")

	netConn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDestinationUnreachable, addr, err)
	}

	conn := chatproto.NewConnection()
	conn.OnPacketReceived.On(n.onPacket)
	conn.OnConnectionLost.On(n.onConnectionLost)
	conn.Open(netConn)

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()

	if err := n.login(ctx, username, serverPassword); err != nil {
		n.teardown()
		return err
	}

	n.mu.Lock()
	n.username = username
	beatCtx, cancel := context.WithCancel(context.Background())
	n.cancelBeat = cancel
	n.mu.Unlock()

	go n.sendHeartbeatPeriodically(beatCtx, conn)
	return nil
}

func (n *Networking) login(ctx context.Context, username, serverPassword string) error {
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()

	resp, err := conn.SendAndWait(ctx, protocol.NewLoginPacket(username, serverPassword))
	if err != nil {
		return err
	}

	switch resp.Code {
	case protocol.ResponseOK:
		return nil
	case protocol.ResponseInvalidUsername:
		return ErrInvalidUsername
	case protocol.ResponseTakenUsername:
		return ErrUsernameTaken
	case protocol.ResponseWrongPassword:
		return ErrWrongPassword
	default:
		return ErrLogin
	}
}

// SendMessage sends text to be broadcast by the server and waits for
// its RESPONSE.
//
// Fails with ErrNotConnected if not joined, or ErrMessageRejected if the
// server's response code was not OK.
func (n *Networking) SendMessage(ctx context.Context, text string) error {
	n.mu.Lock()
	conn, username := n.conn, n.username
	n.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	resp, err := conn.SendAndWait(ctx, protocol.NewMessagePacket(username, text))
	if err != nil {
		return err
	}
	if resp.Code != protocol.ResponseOK {
		return fmt.Errorf("%w: %q", ErrMessageRejected, text)
	}
	return nil
}

// Disconnect gracefully logs out and closes the connection. It is
// silently a no-op if not connected. Unlike an unexpected connection
// loss, Disconnect never triggers OnConnectionLost.
func (n *Networking) Disconnect() {
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()
	if conn == nil {
		return
	}

	n.log.Info("disconnecting from the server")
	_ = conn.Send(protocol.LogoutPacket{})
	n.teardown()
}

// teardown stops the heartbeat and releases the connection reference
// without emitting connection_lost; used both by a graceful Disconnect
// and by Join's own cleanup on a failed login.
func (n *Networking) teardown() {
	n.mu.Lock()
	conn := n.conn
	cancel := n.cancelBeat
	n.conn = nil
	n.username = ""
	n.cancelBeat = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

func (n *Networking) onPacket(p protocol.Packet) {
	if msg, ok := p.(protocol.MessagePacket); ok {
		n.OnMessageReceived.Emit(msg)
	}
}

func (n *Networking) onConnectionLost(err error) {
	n.mu.Lock()
	wasConnected := n.conn != nil
	cancel := n.cancelBeat
	n.conn = nil
	n.username = ""
	n.cancelBeat = nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Disconnect already cleared n.conn before closing the transport, so
	// this callback firing afterward must not re-report a loss the
	// caller already initiated.
	if !wasConnected {
		return
	}

	if err == nil {
		err = chatproto.ErrConnectionClosed
	}
	n.OnConnectionLost.Emit(err)
}

func (n *Networking) sendHeartbeatPeriodically(ctx context.Context, conn *chatproto.Connection) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Send(protocol.HeartbeatPacket{}); err != nil {
				n.log.WithError(err).Warn("failed to send heartbeat")
				return
			}
		}
	}
}
