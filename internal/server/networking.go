// Package server implements the server-side Networking (C5) and
// Application (C6) layers: the TCP accept loop, per-connection packet
// dispatch, login atomicity and heartbeat monitoring, and the roster /
// command layer built on top of it.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"echosphere/internal/chatproto"
	"echosphere/internal/events"
	"echosphere/internal/protocol"
	"echosphere/internal/validate"
)

// HeartbeatInterval is both the client's heartbeat cadence and the
// server's liveness window, matching monitor_heartbeats's default.
const HeartbeatInterval = 15 * time.Second

// AuditSink receives login/logout notifications for the optional audit
// trail (internal/audit). A nil-safe no-op implementation is used when
// no sink is configured.
type AuditSink interface {
	RecordLogin(username, remoteAddr string)
	RecordLogout(username string, err error)
}

type noopAudit struct{}

func (noopAudit) RecordLogin(string, string) {}
func (noopAudit) RecordLogout(string, error) {}

// Networking owns the listener, the live connection roster and the
// heartbeat monitor. It emits OnUserJoined, OnUserLeft and
// OnMessageReceived, which Application subscribes to.
type Networking struct {
	log   *logrus.Logger
	audit AuditSink

	OnUserJoined      events.Emitter[UserJoinedEvent]
	OnUserLeft        events.Emitter[UserLeftEvent]
	OnMessageReceived events.Emitter[MessageReceivedEvent]

	mu             sync.Mutex
	running        bool
	serverPassword string
	connections    map[*chatproto.Connection]*connState
}

// NewNetworking builds a Networking instance. audit may be nil, in which
// case login/logout notifications are dropped.
func NewNetworking(log *logrus.Logger, audit AuditSink) *Networking {
	if audit == nil {
		audit = noopAudit{}
	}
	return &Networking{log: log, audit: audit}
}

// Serve listens on host:port and accepts connections until ctx is
// cancelled or a fatal listener error occurs. It blocks until every
// accepted connection's handler goroutine has returned.
//
// Fails with ErrServerAlreadyRunning if called while a previous Serve
// call on this instance is still running.
func (n *Networking) Serve(ctx context.Context, host string, port uint16, serverPassword string) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	n.running = true
	n.serverPassword = serverPassword
	n.connections = make(map[*chatproto.Connection]*connState)
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "server: listen on %s", addr)
	}

	n.log.WithField("addr", addr).Info("server listening")

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go n.monitorHeartbeats(monitorCtx, HeartbeatInterval)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return errors.Wrap(err, "server: accept")
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			n.handleConn(conn)
		}()
	}
}

func (n *Networking) handleConn(netConn net.Conn) {
	proto := chatproto.NewConnection()
	state := &connState{sessionID: uuid.New(), connectedAt: time.Now()}

	n.mu.Lock()
	n.connections[proto] = state
	n.mu.Unlock()

	done := make(chan struct{})
	sessionLog := n.log.WithFields(logrus.Fields{"session": state.sessionID, "remote": netConn.RemoteAddr()})

	proto.OnConnectionMade.On(func(c *chatproto.Connection) {
		sessionLog.Info("new connection established")
	})
	proto.OnPacketReceived.On(func(p protocol.Packet) {
		n.onPacket(proto, state, p)
	})
	proto.OnConnectionLost.On(func(err error) {
		n.onConnectionClose(proto, state, sessionLog, err)
		close(done)
	})

	proto.Open(netConn)
	<-done
}

func (n *Networking) onPacket(proto *chatproto.Connection, state *connState, packet protocol.Packet) {
	switch p := packet.(type) {
	case protocol.LoginPacket:
		n.handleLogin(proto, state, p)
	case protocol.MessagePacket:
		n.handleMessage(proto, state, p)
	case protocol.HeartbeatPacket:
		n.mu.Lock()
		state.lastHeartbeat = time.Now()
		n.mu.Unlock()
	case protocol.LogoutPacket:
		n.handleLogout(proto, state)
	default:
		n.log.Warn("unhandled packet type received, closing the connection")
		proto.Close()
	}
}

func (n *Networking) handleLogin(proto *chatproto.Connection, state *connState, p protocol.LoginPacket) {
	if !validate.Username(p.Username) {
		_ = proto.Send(protocol.NewResponsePacket(protocol.ResponseInvalidUsername))
		return
	}

	var result protocol.ResponseCode
	n.mu.Lock()
	switch {
	case n.usernameTakenLocked(p.Username):
		result = protocol.ResponseTakenUsername
	case p.Password != n.serverPassword:
		result = protocol.ResponseWrongPassword
	default:
		state.username = p.Username
		result = protocol.ResponseOK
	}
	n.mu.Unlock()

	if err := proto.Send(protocol.NewResponsePacket(result)); err != nil {
		n.log.WithError(err).Debug("failed to send login response")
	}
	if result != protocol.ResponseOK {
		return
	}

	n.audit.RecordLogin(p.Username, "")
	n.OnUserJoined.Emit(UserJoinedEvent{Conn: proto, Username: p.Username})
}

// usernameTakenLocked must be called with n.mu held.
func (n *Networking) usernameTakenLocked(username string) bool {
	for _, state := range n.connections {
		if state.username == username {
			return true
		}
	}
	return false
}

func (n *Networking) handleMessage(proto *chatproto.Connection, state *connState, p protocol.MessagePacket) {
	n.mu.Lock()
	sender := state.username
	n.mu.Unlock()

	if sender == "" || !validate.Message(p.Text) {
		_ = proto.Send(protocol.NewResponsePacket(protocol.ResponseInvalidMessage))
		return
	}

	if err := proto.Send(protocol.NewResponsePacket(protocol.ResponseOK)); err != nil {
		n.log.WithError(err).Debug("failed to send message response")
	}
	n.OnMessageReceived.Emit(MessageReceivedEvent{Sender: sender, Text: p.Text})
}

func (n *Networking) handleLogout(proto *chatproto.Connection, state *connState) {
	n.mu.Lock()
	username := state.username
	state.username = ""
	n.mu.Unlock()

	if username != "" {
		n.OnUserLeft.Emit(UserLeftEvent{Conn: proto, Username: username, Err: nil})
		n.audit.RecordLogout(username, nil)
	}
	proto.Close()
}

func (n *Networking) onConnectionClose(proto *chatproto.Connection, state *connState, sessionLog *logrus.Entry, err error) {
	n.mu.Lock()
	username := state.username
	delete(n.connections, proto)
	n.mu.Unlock()

	sessionLog.WithError(err).Info("connection closed")

	if username == "" {
		return
	}

	closeErr := err
	if closeErr == nil {
		closeErr = chatproto.ErrConnectionClosed
	}
	n.OnUserLeft.Emit(UserLeftEvent{Conn: proto, Username: username, Err: closeErr})
	n.audit.RecordLogout(username, closeErr)
}

func (n *Networking) monitorHeartbeats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	n.log.WithField("interval", interval).Debug("starting heartbeat monitor")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.evictDeadConnections(interval)
		}
	}
}

func (n *Networking) evictDeadConnections(interval time.Duration) {
	type victim struct {
		proto    *chatproto.Connection
		username string
	}

	now := time.Now()
	var dead []victim

	n.mu.Lock()
	for proto, state := range n.connections {
		if state.username != "" && !isAlive(state, now, interval) {
			dead = append(dead, victim{proto: proto, username: state.username})
			state.username = ""
		}
	}
	n.mu.Unlock()

	for _, v := range dead {
		n.log.WithField("username", v.username).Warn("connection is dead, cleaning up")
		n.OnUserLeft.Emit(UserLeftEvent{Conn: v.proto, Username: v.username, Err: chatproto.ErrConnectionClosed})
		n.audit.RecordLogout(v.username, chatproto.ErrConnectionClosed)
		v.proto.Close()
	}
}
