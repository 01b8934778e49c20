// Package netio implements the connection and socket layer: a
// timeout-aware wrapper around net.Conn (plain or TLS) and a
// shared-ownership Connection handle that the parser, formatter, and
// handler can all hold a copy of without copying the underlying socket.
//
// Grounded on the teacher's reader/connection.go and writer/writer.go
// (bufio-wrapped net.Conn), re-architected per HttPony's io::Connection
// (original_source/include/httpony/io/connection.hpp): a Connection value
// is a handle to a shared Data block holding the socket and its buffers,
// so passing a Connection by value shares one socket, not copies it.
package netio

import (
	"bufio"
	"crypto/tls"
	"net"
	"time"

	"github.com/google/uuid"
)

// data is the state a Connection handle points to. Every copy of a
// Connection value shares the same *data, mirroring io::Connection's
// shared_ptr<Data>.
type data struct {
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	id      uuid.UUID
	timeout time.Duration
}

// Connection is a handle to an accepted or dialed socket plus its
// buffered reader/writer. It is deliberately a small struct wrapping a
// pointer so it can be passed by value: all copies observe the same
// underlying socket and buffers, matching §5's "Connection handle may be
// shared by value" rule.
type Connection struct {
	d *data
}

// New wraps conn in a Connection with the given I/O timeout. A zero
// timeout disables deadlines.
func New(conn net.Conn, timeout time.Duration) Connection {
	return Connection{d: &data{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		writer:  bufio.NewWriter(conn),
		id:      uuid.New(),
		timeout: timeout,
	}}
}

// Valid reports whether c refers to a live socket (the zero Connection
// does not).
func (c Connection) Valid() bool {
	return c.d != nil
}

// ID is a per-connection identifier, used for the %P log field and for
// correlating log lines from the same worker.
func (c Connection) ID() uuid.UUID {
	return c.d.id
}

// Reader returns the connection's buffered input, arming a read deadline
// first (§5: read is a suspension point governed by the configured
// timeout).
func (c Connection) Reader() *bufio.Reader {
	c.armReadDeadline()
	return c.d.reader
}

// Writer returns the connection's buffered output, arming a write
// deadline first.
func (c Connection) Writer() *bufio.Writer {
	c.armWriteDeadline()
	return c.d.writer
}

func (c Connection) armReadDeadline() {
	if c.d.timeout > 0 {
		c.d.conn.SetReadDeadline(time.Now().Add(c.d.timeout))
	}
}

func (c Connection) armWriteDeadline() {
	if c.d.timeout > 0 {
		c.d.conn.SetWriteDeadline(time.Now().Add(c.d.timeout))
	}
}

// Flush commits any buffered output to the socket.
func (c Connection) Flush() error {
	c.armWriteDeadline()
	return c.d.writer.Flush()
}

// Close closes the underlying socket. Safe to call more than once.
func (c Connection) Close() error {
	return c.d.conn.Close()
}

// RemoteAddress implements httpwire.ConnHandle.
func (c Connection) RemoteAddress() string {
	return c.d.conn.RemoteAddr().String()
}

// LocalAddress implements httpwire.ConnHandle.
func (c Connection) LocalAddress() string {
	return c.d.conn.LocalAddr().String()
}

// TLSState reports the negotiated TLS connection state, if this
// Connection wraps a TLS socket.
func (c Connection) TLSState() (tls.ConnectionState, bool) {
	tc, ok := c.d.conn.(*tls.Conn)
	if !ok {
		return tls.ConnectionState{}, false
	}
	return tc.ConnectionState(), true
}
