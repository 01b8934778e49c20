package httpwire

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/curol/agentnet/body"
	"github.com/curol/agentnet/header"
)

// WriteRequest writes a request line, headers, and body to w. Framing
// follows the same rules as WriteResponse (§4.5).
func WriteRequest(w *bufio.Writer, req *Request) error {
	target := "/"
	if req.Uri != nil {
		target = req.Uri.Path.Encoded()
		if target == "" {
			target = "/"
		}
		if req.Uri.Query != nil {
			target += req.Uri.Query.BuildQueryString(true)
		}
	}
	if _, err := fmt.Fprintf(w, "%s %s %s\r\n", req.Method, target, req.Protocol); err != nil {
		return err
	}
	prepareBodyHeaders(req.Headers, req.OutBody)
	if err := writeHeaders(w, req.Headers); err != nil {
		return err
	}
	return writeBodyPayload(w, req.Headers, req.OutBody, false)
}

// CleanBody applies §4.5's Response.clean_body rule before formatting:
// strips the body entirely for 1xx/204/304, and suppresses payload bytes
// (while keeping headers) for HEAD requests and successful (200) CONNECT.
func CleanBody(resp *Response, req *Request) {
	if resp.Status.ForbidsBody() {
		resp.Body.StopOutput()
		resp.Headers.Del("Content-Length")
		resp.Headers.Del("Transfer-Encoding")
		resp.PayloadSuppressed = false
		return
	}
	if req == nil {
		return
	}
	if req.Method == "HEAD" || (req.Method == "CONNECT" && resp.Status.Code == 200) {
		if resp.Body.ContentType() != "" && resp.Headers.Get("Content-Type") == "" {
			resp.Headers.Set("Content-Type", resp.Body.ContentType())
		}
		resp.PayloadSuppressed = true
	}
}

// WriteResponse writes a status line, headers, and body to w. Call
// CleanBody before this to apply HEAD/1xx/204/304 suppression.
func WriteResponse(w *bufio.Writer, resp *Response) error {
	if _, err := fmt.Fprintf(w, "%s %s\r\n", resp.Protocol, resp.Status); err != nil {
		return err
	}
	for _, c := range resp.Cookies {
		resp.Headers.Add("Set-Cookie", c.SetCookieString())
	}
	writeChallenges(resp.Headers, "WWW-Authenticate", resp.WWWAuthenticate)
	writeChallenges(resp.Headers, "Proxy-Authenticate", resp.ProxyAuthenticate)
	if !resp.Status.ForbidsBody() {
		prepareBodyHeaders(resp.Headers, resp.Body)
	}
	if err := writeHeaders(w, resp.Headers); err != nil {
		return err
	}
	if resp.Status.ForbidsBody() {
		return w.Flush()
	}
	return writeBodyPayload(w, resp.Headers, resp.Body, resp.PayloadSuppressed)
}

func writeChallenges(h *header.Headers, name string, challenges []header.AuthChallenge) {
	for _, c := range challenges {
		var b strings.Builder
		b.WriteString(c.Scheme)
		first := true
		for _, p := range c.Parameters.Pairs() {
			if first {
				b.WriteByte(' ')
				first = false
			} else {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, `%s="%s"`, p.Key, p.Value)
		}
		h.Add(name, b.String())
	}
}

func writeHeaders(w *bufio.Writer, h *header.Headers) error {
	for _, p := range h.Pairs() {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", p.Key, p.Value); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// prepareBodyHeaders commits §4.5's body-framing decision (chunked vs an
// explicit Content-Length vs an auto-computed one) into h before the header
// block is sent: the decision has to be visible to writeHeaders, not
// discovered after the headers have already gone out on the wire.
func prepareBodyHeaders(h *header.Headers, ob *body.OutputBody) {
	if ob == nil {
		return
	}
	switch {
	case h.IsChunked():
		// Transfer-Encoding already set by the caller; nothing to add.
	case h.Get("Content-Length") != "":
		// Caller supplied an explicit length; trust it as-is.
	default:
		if h.Get("Content-Type") == "" && ob.ContentType() != "" {
			h.Set("Content-Type", ob.ContentType())
		}
		h.Set("Content-Length", strconv.FormatInt(ob.ContentLength(), 10))
	}
}

// writeBodyPayload writes the payload bytes implied by the framing
// prepareBodyHeaders already committed to the header block.
// suppressPayload writes no body bytes at all, not even a chunked
// terminator (HEAD/CONNECT responses).
func writeBodyPayload(w *bufio.Writer, h *header.Headers, ob *body.OutputBody, suppressPayload bool) error {
	if ob == nil {
		return w.Flush()
	}
	if h.IsChunked() {
		if err := writeChunk(w, ob.Bytes(), suppressPayload); err != nil {
			return err
		}
	} else if !suppressPayload {
		if _, err := ob.WriteTo(w); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeChunk(w *bufio.Writer, payload []byte, suppressPayload bool) error {
	if suppressPayload {
		return nil
	}
	if len(payload) > 0 {
		if _, err := fmt.Fprintf(w, "%x\r\n", len(payload)); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if _, err := w.WriteString("\r\n"); err != nil {
			return err
		}
	}
	_, err := w.WriteString("0\r\n\r\n")
	return err
}
