package agent

import (
	"context"
	"crypto/tls"
	"strings"
	"sync"
	"time"

	"github.com/curol/agentnet/header"
	"github.com/curol/agentnet/httpwire"
	"github.com/curol/agentnet/netio"
	"github.com/curol/agentnet/uri"
)

// ClientConfig configures a Client's defaults.
type ClientConfig struct {
	Timeout   time.Duration
	TLSConfig *tls.Config
	// Reuse enables opportunistic connection reuse (§4.7): when both
	// sides agree, the Client may keep a connection open for a later
	// request against the same authority. Reuse is optional; the Client
	// always degrades to close-on-response when unsure.
	Reuse bool
	// FollowRedirects opts into automatically re-issuing a request
	// against a 3xx response's Location header, resolved against the
	// original request's Uri via uri.Uri.Resolve. Off by default: a
	// caller that wants the raw 3xx back sees it untouched.
	FollowRedirects bool
	// MaxRedirects caps the number of hops Do will follow when
	// FollowRedirects is set. Zero means the package default of 10.
	MaxRedirects int
}

const defaultMaxRedirects = 10

func isRedirectStatus(code uint16) bool {
	switch code {
	case 301, 302, 303, 307, 308:
		return true
	}
	return false
}

// Client issues one-shot (or, when configured, keep-alive) HTTP/1
// requests. Grounded on the teacher's reader/http.go client-side dialing
// pattern, re-architected per §4.7's connection-reuse contract.
type Client struct {
	config ClientConfig

	mu   sync.Mutex
	pool map[string]netio.Connection // authority -> reusable connection
}

// NewClient returns a Client with the given defaults.
func NewClient(config ClientConfig) *Client {
	return &Client{config: config, pool: make(map[string]netio.Connection)}
}

// Do opens a connection to req.Uri's authority (reusing a pooled one if
// available and enabled), writes req, and parses the response into resp.
// The returned Status describes transport + parse success, not the
// response's own status line (§4.7). When ClientConfig.FollowRedirects is
// set and the response is a 3xx with a Location header, Do resolves the
// redirect against req.Uri via uri.Uri.Resolve and re-issues the request,
// up to MaxRedirects hops; resp ends up holding the final exchange.
func (c *Client) Do(ctx context.Context, req *httpwire.Request, resp *httpwire.Response) httpwire.Status {
	max := c.config.MaxRedirects
	if max == 0 {
		max = defaultMaxRedirects
	}

	for hop := 0; ; hop++ {
		status := c.doOnce(ctx, req, resp)
		if status != httpwire.StatusOK || !c.config.FollowRedirects {
			return status
		}
		if !isRedirectStatus(resp.Status.Code) {
			return status
		}
		location := resp.Headers.Get("Location")
		if location == "" || hop >= max {
			return status
		}
		req = &httpwire.Request{
			Method:   req.Method,
			Uri:      req.Uri.Resolve(uri.Parse(location)),
			Protocol: req.Protocol,
			Headers:  header.New(),
		}
		*resp = httpwire.Response{}
	}
}

func (c *Client) doOnce(ctx context.Context, req *httpwire.Request, resp *httpwire.Response) httpwire.Status {
	if req.Uri == nil {
		return httpwire.StatusBadRequest
	}
	useTLS := strings.EqualFold(req.Uri.Scheme, "https")
	defaultPort := uint16(80)
	if useTLS {
		defaultPort = 443
	}
	// host:port only, never userinfo, so a URL carrying credentials
	// dials correctly and never leaks them into the Host header.
	authorityKey, err := req.Uri.Authority.HostPort(defaultPort)
	if err != nil {
		return httpwire.StatusBadRequest
	}

	conn, reused := c.takeReusable(authorityKey)
	if !reused {
		var err error
		conn, err = c.dial(ctx, authorityKey, useTLS)
		if err != nil {
			return httpwire.StatusInternalServerError
		}
	}

	if req.Headers == nil {
		req.Headers = header.New()
	}
	if req.Headers.Get("Host") == "" {
		req.Headers.Set("Host", authorityKey)
	}

	if err := httpwire.WriteRequest(conn.Writer(), req); err != nil {
		conn.Close()
		return httpwire.StatusInternalServerError
	}

	status := httpwire.ParseResponse(conn.Reader(), resp)
	if status != httpwire.StatusOK {
		conn.Close()
		return status
	}

	if c.config.Reuse && canReuse(req.Protocol, resp.Headers) {
		c.putReusable(authorityKey, conn)
	} else {
		conn.Close()
	}
	return httpwire.StatusOK
}

func (c *Client) dial(ctx context.Context, addr string, useTLS bool) (netio.Connection, error) {
	if useTLS {
		return netio.DialTLS(ctx, "tcp", addr, c.config.TLSConfig, c.config.Timeout)
	}
	return netio.Dial(ctx, "tcp", addr, c.config.Timeout)
}

func (c *Client) takeReusable(key string) (netio.Connection, bool) {
	if !c.config.Reuse {
		return netio.Connection{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.pool[key]
	if ok {
		delete(c.pool, key)
	}
	return conn, ok
}

func (c *Client) putReusable(key string, conn netio.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.pool[key]; ok {
		old.Close()
	}
	c.pool[key] = conn
}

// Close closes every pooled connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, conn := range c.pool {
		conn.Close()
		delete(c.pool, k)
	}
}

// canReuse implements §4.7: "Connection: keep-alive on 1.0, or absence
// of Connection: close on 1.1".
func canReuse(proto httpwire.Protocol, h *header.Headers) bool {
	connHeader := strings.ToLower(h.Get("Connection"))
	if proto.Minor == 0 {
		return connHeader == "keep-alive"
	}
	return connHeader != "close"
}
