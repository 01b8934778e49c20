package agent

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/curol/agentnet/httpwire"
	"github.com/curol/agentnet/netio"
)

func startServer(t *testing.T, config Config, handler HandlerFunc) *Server {
	t.Helper()
	config.ListenAddress.Host = "127.0.0.1"
	config.ListenAddress.Port = 0
	srv := NewServer(config, handler, nil, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv
}

func dialAndSend(t *testing.T, addr string, raw string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(raw))
	require.NoError(t, err)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	out, err := ioReadAll(conn)
	if err != nil && len(out) == 0 {
		require.NoError(t, err)
	}
	return string(out)
}

func ioReadAll(conn net.Conn) ([]byte, error) {
	r := bufio.NewReader(conn)
	buf := make([]byte, 0, 512)
	tmp := make([]byte, 512)
	for {
		n, err := r.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			return buf, err
		}
	}
}

func TestServerSimpleGet(t *testing.T) {
	config := DefaultConfig()
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		assert.Equal(t, "GET", req.Method)
		assert.Equal(t, []string{"path"}, []string(req.Uri.Path))
		v, _ := req.Uri.Query.Get("x")
		assert.Equal(t, "1", v)
		resp.Body.Write([]byte("hi"))
	})

	out := dialAndSend(t, srv.listener.Addr().String(), "GET /path?x=1 HTTP/1.1\r\nHost: h\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Length: 2\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\nhi"))
}

func TestServerPayloadTooLarge(t *testing.T) {
	config := DefaultConfig()
	config.MaxRequestBody = 1_000_000

	var gotStatus httpwire.Status
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		// §4.6 rule 2: the handler observes every parse status,
		// including PayloadTooLarge, and decides how to render it.
		gotStatus = status
		assert.Equal(t, "POST", req.Method)
		resp.Status = status
	})

	raw := "POST /f HTTP/1.1\r\nContent-Length: 10000000\r\n\r\n"
	out := dialAndSend(t, srv.listener.Addr().String(), raw)

	assert.Equal(t, httpwire.StatusPayloadTooLarge, gotStatus)
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 413"))
}

func TestServerHeadSuppressesBody(t *testing.T) {
	config := DefaultConfig()
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		resp.Body.StartOutput("text/plain")
		resp.Body.Write([]byte("abc"))
	})

	out := dialAndSend(t, srv.listener.Addr().String(), "HEAD / HTTP/1.1\r\nHost: h\r\n\r\n")
	assert.Contains(t, out, "Content-Type: text/plain\r\n")
	assert.Contains(t, out, "Content-Length: 3\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n"))
}

func TestServerNoContentStripsBody(t *testing.T) {
	config := DefaultConfig()
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		resp.Status = httpwire.StatusNoContent
		resp.Body.Write([]byte("should not appear"))
	})

	out := dialAndSend(t, srv.listener.Addr().String(), "GET / HTTP/1.1\r\nHost: h\r\n\r\n")
	assert.NotContains(t, out, "Content-Length")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n"))
}

func TestServerStopWaitsForInFlightRequest(t *testing.T) {
	config := DefaultConfig()
	started := make(chan struct{})
	release := make(chan struct{})
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		close(started)
		<-release
		resp.Body.Write([]byte("done"))
	})

	addr := srv.listener.Addr().String()
	go dialAndSend(t, addr, "GET / HTTP/1.1\r\nHost: h\r\n\r\n")

	<-started
	stopped := make(chan struct{})
	go func() {
		srv.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before in-flight handler finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-stopped
}

func TestServerRequestTimeout(t *testing.T) {
	config := DefaultConfig()
	config.ListenAddress.Host = "127.0.0.1"
	config.ListenAddress.Port = 0
	config.Timeout = 50 * time.Millisecond

	errs := make(chan httpwire.Status, 1)
	onError := ErrorHandlerFunc(func(conn netio.Connection, status httpwire.Status) {
		select {
		case errs <- status:
		default:
		}
	})

	statuses := make(chan httpwire.Status, 1)
	srv := NewServer(config, HandlerFunc(func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		// §4.6 rule 2: the handler, not onError, observes a stalled
		// request's RequestTimeout status.
		statuses <- status
		resp.Status = status
	}), onError, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	conn, err := net.DialTimeout("tcp", srv.listener.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	// Stall mid-headers: write the request line but never send the
	// terminating blank line, per spec scenario "client sends a request
	// and stalls mid-headers".
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\nHost: h\r\n"))
	require.NoError(t, err)

	select {
	case status := <-statuses:
		assert.Equal(t, httpwire.StatusRequestTimeout, status)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not dispatched with RequestTimeout after the configured deadline")
	}

	select {
	case status := <-errs:
		t.Fatalf("onError must not fire for a parse-status outcome, got %v", status)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServerOversizedResponseBecomes500(t *testing.T) {
	config := DefaultConfig()
	config.MaxResponseBody = 4

	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		resp.Body.Write([]byte("way more than four bytes"))
	})

	out := dialAndSend(t, srv.listener.Addr().String(), "GET / HTTP/1.1\r\nHost: h\r\n\r\n")
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n"))
	assert.NotContains(t, out, "way more than four bytes")
}

func TestServerRateLimitThrottlesAccept(t *testing.T) {
	config := DefaultConfig()
	// One token up front, refilled slowly: the second connection's
	// request won't be read until the limiter allows another Accept.
	config.RateLimit = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
	srv := startServer(t, config, func(resp *httpwire.Response, req *httpwire.Request, status httpwire.Status) {
		resp.Body.Write([]byte("hi"))
	})
	addr := srv.listener.Addr().String()

	start := time.Now()
	dialAndSend(t, addr, "GET / HTTP/1.1\r\nHost: h\r\n\r\n")
	dialAndSend(t, addr, "GET / HTTP/1.1\r\nHost: h\r\n\r\n")
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
