package httpwire

import (
	"strconv"
	"time"

	"github.com/curol/agentnet/body"
	"github.com/curol/agentnet/header"
	"github.com/curol/agentnet/uri"
)

// ConnHandle is the minimal view of a connection that a Request/Response
// needs to carry: enough for logging and for a handler that wants to
// hijack or inspect the underlying socket. netio.Connection implements
// this; httpwire does not import netio.
type ConnHandle interface {
	RemoteAddress() string
	LocalAddress() string
	Close() error
}

// RequestFile is one decoded part of a multipart/form-data upload.
type RequestFile struct {
	Filename    string
	ContentType string
	Headers     *header.Headers
	Contents    []byte
}

// Request is a parsed (or to-be-formatted) HTTP request.
type Request struct {
	Method     string
	Uri        *uri.Uri
	Protocol   Protocol
	Headers    *header.Headers
	UserAgent  string
	Cookies    *header.CookieJar
	PostParams *uri.Query // populated by ParsePost
	Files      map[string][]RequestFile
	Auth       header.Auth
	ProxyAuth  header.Auth
	Body       *body.InputBody
	OutBody    *body.OutputBody // used when formatting a request to send
	Received   time.Time
	Connection ConnHandle
}

// GetParams returns the request URI's query multimap (the spec's
// "get-params = uri.query" alias).
func (r *Request) GetParams() *uri.Query {
	if r.Uri == nil {
		return uri.NewQuery()
	}
	if r.Uri.Query == nil {
		r.Uri.Query = uri.NewQuery()
	}
	return r.Uri.Query
}

// CanParsePost reports whether the request is a POST with a body type this
// package knows how to decode into PostParams/Files.
func (r *Request) CanParsePost() bool {
	if r.Method != "POST" {
		return false
	}
	mt := ParseMimeType(r.Headers.ContentType())
	return mt.IsFormURLEncoded() || mt.IsMultipartFormData()
}

// Response is a parsed (or to-be-formatted) HTTP response.
type Response struct {
	Body                *body.OutputBody
	InBody              *body.InputBody // used when parsing a received response
	Status              Status
	Headers             *header.Headers
	Protocol            Protocol
	Cookies             []*header.Cookie
	Date                time.Time
	WWWAuthenticate     []header.AuthChallenge
	ProxyAuthenticate   []header.AuthChallenge
	Connection          ConnHandle
	// PayloadSuppressed is set by CleanBody for HEAD requests and
	// successful CONNECT: headers (Content-Type/Length) are still written,
	// but no body bytes are sent.
	PayloadSuppressed bool
}

// NewResponse returns a Response defaulting to 200 OK / HTTP/1.1 with an
// empty header set and a started, empty output body.
func NewResponse() *Response {
	r := &Response{
		Status:   StatusOK,
		Headers:  header.New(),
		Protocol: HTTP11,
		Body:     body.NewOutputBody(),
	}
	r.Body.StartOutput("")
	return r
}

// Redirect returns a Response that redirects the client to location with
// the given status (expected to be a 3xx code; any status is accepted).
func Redirect(location string, status Status) *Response {
	r := NewResponse()
	r.Status = status
	r.Headers.Set("Location", location)
	return r
}

// AuthorizationRequired returns a 401 Response carrying the given
// WWW-Authenticate challenges.
func AuthorizationRequired(challenges []header.AuthChallenge) *Response {
	r := NewResponse()
	r.Status = StatusUnauthorized
	r.WWWAuthenticate = challenges
	return r
}

// ListenAddress is a host + optional port to bind a server to. Port 0
// requests an OS-assigned ephemeral port.
type ListenAddress struct {
	Host string
	Port uint16
}

func (a ListenAddress) String() string {
	port := strconv.FormatUint(uint64(a.Port), 10)
	if a.Host == "" {
		return ":" + port
	}
	return a.Host + ":" + port
}
