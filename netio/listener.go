package netio

import (
	"context"
	"crypto/tls"
	"net"
	"time"

	"github.com/curol/agentnet/httpwire"
)

// Listener accepts Connections. PlainListener and TLSListener are the two
// factories §4.6 calls "plain or TLS per the subclass factory"; both
// satisfy this interface so the server's accept loop does not care which
// one it was built with.
type Listener interface {
	Accept() (Connection, error)
	Addr() net.Addr
	Close() error
}

// PlainListener accepts unencrypted TCP connections.
type PlainListener struct {
	ln      net.Listener
	timeout time.Duration
}

// Listen binds addr on the "tcp" network and returns a PlainListener.
// Port 0 requests an OS-assigned ephemeral port; the resolved address is
// available from Addr() once bound, matching §4.6's listen_address().
func Listen(addr httpwire.ListenAddress, timeout time.Duration) (*PlainListener, error) {
	ln, err := net.Listen("tcp", addr.String())
	if err != nil {
		return nil, err
	}
	return &PlainListener{ln: ln, timeout: timeout}, nil
}

func (l *PlainListener) Accept() (Connection, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return Connection{}, err
	}
	return New(conn, l.timeout), nil
}

func (l *PlainListener) Addr() net.Addr { return l.ln.Addr() }
func (l *PlainListener) Close() error   { return l.ln.Close() }

// TLSListener accepts TLS connections, performing the handshake inside
// Accept so a handshake failure surfaces as an Accept error (one of the
// suspension points §5 names).
type TLSListener struct {
	ln      net.Listener
	config  *tls.Config
	timeout time.Duration
}

// ListenTLS binds addr and wraps accepted connections with the given TLS
// config.
func ListenTLS(addr httpwire.ListenAddress, config *tls.Config, timeout time.Duration) (*TLSListener, error) {
	ln, err := tls.Listen("tcp", addr.String(), config)
	if err != nil {
		return nil, err
	}
	return &TLSListener{ln: ln, config: config, timeout: timeout}, nil
}

func (l *TLSListener) Accept() (Connection, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return Connection{}, err
	}
	tc := conn.(*tls.Conn)
	if l.timeout > 0 {
		tc.SetDeadline(time.Now().Add(l.timeout))
	}
	if err := tc.HandshakeContext(context.Background()); err != nil {
		tc.Close()
		return Connection{}, err
	}
	return New(tc, l.timeout), nil
}

func (l *TLSListener) Addr() net.Addr { return l.ln.Addr() }
func (l *TLSListener) Close() error   { return l.ln.Close() }

// Dial opens a plain TCP connection to addr for client use (§4.7).
func Dial(ctx context.Context, network, addr string, timeout time.Duration) (Connection, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return Connection{}, err
	}
	return New(conn, timeout), nil
}

// DialTLS opens a TLS connection to addr for client use.
func DialTLS(ctx context.Context, network, addr string, config *tls.Config, timeout time.Duration) (Connection, error) {
	d := tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}, Config: config}
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return Connection{}, err
	}
	return New(conn, timeout), nil
}
