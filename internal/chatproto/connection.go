// Package chatproto implements the per-connection protocol state machine
// (C3): reassembly of packets from a partial byte stream via
// protocol.FrameReader, request/response correlation through a FIFO of
// outstanding send_and_wait calls, and connection-made/packet-received/
// connection-lost event emission.
package chatproto

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"echosphere/internal/events"
	"echosphere/internal/protocol"
)

type responseResult struct {
	packet protocol.ResponsePacket
	err    error
}

// Connection wraps a net.Conn with the framing, event-emission and
// response-correlation behavior described in spec.md §4.3. It owns a
// background goroutine that reads from the underlying conn until it is
// closed or returns an error.
type Connection struct {
	OnConnectionMade  events.Emitter[*Connection]
	OnPacketReceived  events.Emitter[protocol.Packet]
	OnConnectionLost  events.Emitter[error]

	writeMu sync.Mutex
	conn    net.Conn

	mu       sync.Mutex
	closed   bool
	codecErr error
	pending  []chan responseResult
	reader   *protocol.FrameReader
}

// NewConnection allocates an unopened Connection. Call Open to attach a
// transport and begin reading.
func NewConnection() *Connection {
	return &Connection{}
}

// Open attaches conn as this connection's transport, emits
// connection_made, and starts the background read loop. Open must be
// called at most once per Connection.
func (c *Connection) Open(conn net.Conn) {
	c.writeMu.Lock()
	c.conn = conn
	c.writeMu.Unlock()

	c.mu.Lock()
	c.closed = false
	c.reader = protocol.NewFrameReader()
	c.mu.Unlock()

	c.OnConnectionMade.Emit(c)
	go c.readLoop()
}

func (c *Connection) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if fatal := c.onBytes(buf[:n]); fatal != nil {
				c.mu.Lock()
				c.codecErr = fatal
				c.mu.Unlock()
				c.conn.Close()
				// Keep reading: the Close above will surface a read
				// error on the next iteration, which drives
				// onStreamClose exactly once.
				continue
			}
		}
		if err != nil {
			if err == io.EOF {
				c.onStreamClose(nil)
			} else {
				c.onStreamClose(err)
			}
			return
		}
	}
}

// onBytes feeds newly received bytes into the frame reader and emits
// packet_received for everything it yields. Returns a non-nil error if
// a fatal codec error was encountered; the caller is responsible for
// closing the transport.
func (c *Connection) onBytes(b []byte) error {
	c.mu.Lock()
	c.reader.Feed(b)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		packet, ok, err := c.reader.Next()
		c.mu.Unlock()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if resp, isResponse := packet.(protocol.ResponsePacket); isResponse {
			c.resolveNextResponse(nil, resp)
		}
		c.OnPacketReceived.Emit(packet)
	}
}

func (c *Connection) onStreamClose(transportErr error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	codecErr := c.codecErr
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	failErr := codecErr
	if failErr == nil {
		if transportErr != nil {
			failErr = transportErr
		} else {
			failErr = ErrConnectionClosed
		}
	}
	for _, ch := range pending {
		ch <- responseResult{err: failErr}
		close(ch)
	}

	// Error reporting precedence: codec error > transport error > nil.
	emitErr := codecErr
	if emitErr == nil {
		emitErr = transportErr
	}
	c.OnConnectionLost.Emit(emitErr)
}

// IsClosed reports whether the connection has been closed. It becomes
// true once the read loop observes the end of the stream, whether that
// was caused by a call to Close, a transport error, or a fatal codec
// error; Close itself does not set it.
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send writes packet to the transport without waiting for a reply.
//
// Fails with ErrConnectionClosed if the connection is already closed,
// or a wrapped ErrNetwork if the underlying write fails.
func (c *Connection) Send(packet protocol.Packet) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}

	raw, err := protocol.Serialize(packet)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	_, err = c.conn.Write(raw)
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return nil
}

// SendAndWait sends packet and blocks until the next inbound RESPONSE
// packet on this connection, FIFO-correlated with any other concurrent
// SendAndWait calls.
//
// Fails with ErrConnectionClosed if the connection is already closed.
// If ctx is cancelled before a response arrives, the wait is abandoned
// and ctx.Err() is returned, but the queued waiter is left in place so a
// later close still drains it correctly.
func (c *Connection) SendAndWait(ctx context.Context, packet protocol.Packet) (protocol.ResponsePacket, error) {
	if c.IsClosed() {
		return protocol.ResponsePacket{}, ErrConnectionClosed
	}

	ch := make(chan responseResult, 1)
	c.mu.Lock()
	c.pending = append(c.pending, ch)
	c.mu.Unlock()

	if err := c.Send(packet); err != nil {
		return protocol.ResponsePacket{}, err
	}

	select {
	case res := <-ch:
		return res.packet, res.err
	case <-ctx.Done():
		return protocol.ResponsePacket{}, ctx.Err()
	}
}

func (c *Connection) resolveNextResponse(err error, result protocol.ResponsePacket) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	ch := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	ch <- responseResult{packet: result, err: err}
	close(ch)
}

// Close idempotently initiates an orderly transport close. It does not
// itself emit connection_lost — that is the read loop's job once the
// close is observed as a read error or EOF.
func (c *Connection) Close() error {
	c.writeMu.Lock()
	conn := c.conn
	c.writeMu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
