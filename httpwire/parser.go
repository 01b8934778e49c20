package httpwire

import (
	"bufio"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/curol/agentnet/body"
	"github.com/curol/agentnet/header"
	"github.com/curol/agentnet/uri"
)

// Limits bounds what the parser will accept, per §4.6's two-stage cap:
// the header phase caps total header bytes, the post-header phase caps
// the declared body size.
type Limits struct {
	// MaxRequestTargetLen caps the length of the request-target; 0 means
	// unlimited.
	MaxRequestTargetLen int
	// MaxHeaderBytes caps the total bytes of the header lines, including
	// the terminating blank line (the header-phase cap of §4.6); the
	// request line is not counted. 0 means unlimited.
	MaxHeaderBytes int
	// MaxRequestBody caps Content-Length before the body is read; -1 means
	// unlimited.
	MaxRequestBody int64
}

// DefaultLimits mirrors the teacher's server/config.go defaults (5 MiB),
// with MaxHeaderBytes defaulted to the same 1 MiB ceiling net/http uses
// (net/http.DefaultMaxHeaderBytes) since neither teacher nor HttPony pins
// a number for total header bytes.
var DefaultLimits = Limits{MaxRequestTargetLen: 8 * 1024, MaxHeaderBytes: 1 << 20, MaxRequestBody: 5 * 1024 * 1024}

// ParseRequest reads one HTTP/1 request from r: request line, headers, and
// a framed-but-unread body. The ordering of failure modes follows §4.4:
// transport timeout beats malformed line beats target-too-long beats
// unknown version beats payload-too-large. Per §4.6 rule 2, ParseRequest
// always returns a non-nil *Request — even on failure, the fields parsed
// before the failure are populated — so the caller can dispatch
// respond(request, status) unconditionally rather than special-casing
// parse failures.
func ParseRequest(r *bufio.Reader, limits Limits) (*Request, Status) {
	req := &Request{Received: time.Now()}

	line, err := readLine(r)
	if err != nil {
		if isTimeout(err) {
			return req, StatusRequestTimeout
		}
		return req, StatusBadRequest
	}

	method, target, protoTok, ok := splitRequestLine(line)
	if !ok {
		return req, StatusBadRequest
	}
	req.Method = method

	if limits.MaxRequestTargetLen > 0 && len(target) > limits.MaxRequestTargetLen {
		return req, StatusURITooLong
	}
	req.Uri = uri.Parse(target)

	proto, ok := ParseProtocol(protoTok)
	if !ok || !proto.Supported() {
		return req, StatusHTTPVersionNotSupported
	}
	req.Protocol = proto

	headers, err := readHeaders(r, limits.MaxHeaderBytes)
	if err != nil {
		if isTimeout(err) {
			return req, StatusRequestTimeout
		}
		if errors.Is(err, errHeadersTooLarge) {
			// No dedicated status exists for "headers exceeded the byte
			// budget" in §4's status set; treated as the same
			// size/policy-error class as an oversized body.
			return req, StatusPayloadTooLarge
		}
		return req, StatusBadRequest
	}
	req.Headers = headers
	req.UserAgent = headers.Get("User-Agent")

	if limits.MaxRequestBody >= 0 {
		if cl := headers.ContentLength(); cl > limits.MaxRequestBody {
			return req, StatusPayloadTooLarge
		}
	}

	req.Body = body.NewInputBody(r, headers)
	req.Auth = header.ParseAuth(headers.Get("Authorization"))
	req.ProxyAuth = header.ParseAuth(headers.Get("Proxy-Authorization"))
	if c := headers.Get("Cookie"); c != "" {
		req.Cookies = header.ParseCookieHeader(c)
	} else {
		req.Cookies = header.NewCookieJar()
	}

	return req, StatusOK
}

// ParseResponse reads one HTTP/1 response from r into a caller-provided
// Response (matching §4.4's symmetry note). The returned Status describes
// the parse outcome, not the parsed response's own status line.
func ParseResponse(r *bufio.Reader, resp *Response) Status {
	line, err := readLine(r)
	if err != nil {
		if isTimeout(err) {
			return StatusRequestTimeout
		}
		return StatusBadRequest
	}

	protoTok, code, reason, ok := splitStatusLine(line)
	if !ok {
		return StatusBadRequest
	}
	proto, ok := ParseProtocol(protoTok)
	if !ok || !proto.Supported() {
		return StatusHTTPVersionNotSupported
	}

	headers, err := readHeaders(r, 0)
	if err != nil {
		if isTimeout(err) {
			return StatusRequestTimeout
		}
		return StatusBadRequest
	}

	resp.Protocol = proto
	resp.Status = Status{Code: code, Reason: reason}
	resp.Headers = headers
	resp.InBody = body.NewInputBody(r, headers)
	resp.WWWAuthenticate = header.ParseAuthChallenges(headers.Get("WWW-Authenticate"))
	resp.ProxyAuthenticate = header.ParseAuthChallenges(headers.Get("Proxy-Authenticate"))
	for _, v := range headers.Values("Set-Cookie") {
		resp.Cookies = append(resp.Cookies, header.ParseSetCookieHeader(v))
	}

	return StatusOK
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// readLine reads one line, accepting both CRLF and bare-LF termination
// (the parser is tolerant on read; the formatter always emits CRLF, per
// §6).
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func splitRequestLine(line string) (method, target, proto string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func splitStatusLine(line string) (proto string, code uint16, reason string, ok bool) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return "", 0, "", false
	}
	n, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return "", 0, "", false
	}
	r := ""
	if len(parts) == 3 {
		r = parts[2]
	}
	return parts[0], uint16(n), r, true
}

// readHeaders reads "NAME: VALUE" lines until a blank line, joining
// obs-folded continuation lines (SP/HTAB-prefixed) with a single space —
// see DESIGN.md Open Question #1 for why folding is accepted rather than
// rejected. maxBytes caps the running total of header-line bytes read (the
// §4.6 header-phase size cap); 0 means unlimited, used by ParseResponse
// which has no server-side budget to enforce.
func readHeaders(r *bufio.Reader, maxBytes int) (*header.Headers, error) {
	h := header.New()
	var lastName string
	haveLast := false
	total := 0

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		total += len(line)
		if maxBytes > 0 && total > maxBytes {
			return nil, errHeadersTooLarge
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			return h, nil
		}
		if (line[0] == ' ' || line[0] == '\t') && haveLast {
			folded := strings.TrimSpace(trimmed)
			cur := h.Get(lastName)
			h.Set(lastName, cur+" "+folded)
			continue
		}
		colon := strings.IndexByte(trimmed, ':')
		if colon < 0 {
			return nil, errMalformedHeader
		}
		name := strings.TrimSpace(trimmed[:colon])
		value := strings.TrimSpace(trimmed[colon+1:])
		h.Add(name, value)
		lastName = name
		haveLast = true
	}
}

var errMalformedHeader = errors.New("httpwire: malformed header line")
var errHeadersTooLarge = errors.New("httpwire: header bytes exceeded limit")
