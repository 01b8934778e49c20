package netio

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curol/agentnet/httpwire"
)

func TestConnectionSharesUnderlyingSocket(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c1 := New(server, time.Second)
	c2 := c1 // copy by value, per §5's shared-handle rule

	go func() {
		w := c1.Writer()
		w.WriteString("hello")
		c1.Flush()
	}()

	buf := make([]byte, 5)
	_, err := client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	// c2 must see the same socket id as c1, since it's the same handle.
	assert.Equal(t, c1.ID(), c2.ID())
}

func TestConnectionValid(t *testing.T) {
	var zero Connection
	assert.False(t, zero.Valid())

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	c := New(server, 0)
	assert.True(t, c.Valid())
}

// selfSignedCert returns a throwaway TLS certificate for "127.0.0.1",
// good enough to exercise ListenTLS/DialTLS without any external CA.
func selfSignedCert(t *testing.T) tls.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	cert, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
	require.NoError(t, err)
	return cert
}

// TestListenTLSAndDialTLSRoundTrip exercises the TLS variant of the
// plain/TLS socket pair §4.6 calls "per the subclass factory": a TLS
// listener accepts a handshake, and TLSState reports the negotiated
// connection state on both ends.
func TestListenTLSAndDialTLSRoundTrip(t *testing.T) {
	cert := selfSignedCert(t)
	serverCfg := &tls.Config{Certificates: []tls.Certificate{cert}}

	ln, err := ListenTLS(httpwire.ListenAddress{Host: "127.0.0.1", Port: 0}, serverCfg, time.Second)
	require.NoError(t, err)
	defer ln.Close()

	pool := x509.NewCertPool()
	pool.AddCert(mustParseCert(t, cert))
	clientCfg := &tls.Config{RootCAs: pool, ServerName: "127.0.0.1"}

	serverDone := make(chan Connection, 1)
	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		serverDone <- conn
	}()

	clientConn, err := DialTLS(context.Background(), "tcp", ln.Addr().String(), clientCfg, time.Second)
	require.NoError(t, err)
	defer clientConn.Close()

	serverConn := <-serverDone
	defer serverConn.Close()

	_, ok := clientConn.TLSState()
	assert.True(t, ok)
	_, ok = serverConn.TLSState()
	assert.True(t, ok)
}

func mustParseCert(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return parsed
}
