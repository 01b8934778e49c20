// Package body implements the framed message body: InputBody for reading a
// request/response payload off the wire, OutputBody for buffering one to be
// written. Grounded on the teacher's message/body.go and message/transfer.go
// (a Body wrapping a reader with content-type/length bookkeeping), split
// into two types per spec §9's REDESIGN FLAG instead of one
// mode-flagged type.
package body

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// contentHeader is the content-type/length fragment shared by InputBody and
// OutputBody.
type contentHeader struct {
	contentType   string
	contentLength int64 // for chunked input, the sum of chunk sizes read so far
}

// ContentType returns the declared Content-Type, or "" if none.
func (c contentHeader) ContentType() string { return c.contentType }

// ContentLength returns the body's length: for length-delimited input this
// is the declared Content-Length; for chunked input it is the sum of chunk
// sizes seen so far (final only once Eof() is true); for output it is the
// number of buffered bytes.
func (c contentHeader) ContentLength() int64 { return c.contentLength }

// HeaderSource is the minimal view of a message's headers that InputBody
// needs to pick its framing: Transfer-Encoding, Content-Length,
// Content-Type.
type HeaderSource interface {
	Get(name string) string
	IsChunked() bool
	ContentLength() int64
	ContentType() string
}

// InputBody is a framed, read-only view of an incoming message body.
//
// Framing is chosen once, at construction, following §4.3's priority:
// chunked (when Transfer-Encoding: chunked and no Content-Length) beats
// length-delimited (Content-Length: N) beats empty.
type InputBody struct {
	contentHeader
	r         *bufio.Reader
	chunked   bool
	err       error // sticky error flag; sticks once set
	eof       bool
	chunkLeft int64 // bytes left in the current chunk (chunked mode only)
	read      int64 // bytes delivered to the caller so far
}

// NewInputBody constructs an InputBody over r using h to decide framing. It
// does not eagerly read anything; the first chunk header (if chunked) is
// read lazily on the first Read/ReadAll call.
func NewInputBody(r *bufio.Reader, h HeaderSource) *InputBody {
	b := &InputBody{r: r}
	b.contentType = h.ContentType()

	switch {
	case h.IsChunked() && h.Get("Content-Length") == "":
		b.chunked = true
		b.contentLength = 0
	case h.ContentLength() >= 0:
		b.contentLength = h.ContentLength()
	default:
		b.contentLength = 0
		b.eof = true
	}
	return b
}

// Chunked reports whether the body is framed with chunked transfer
// encoding.
func (b *InputBody) Chunked() bool { return b.chunked }

// Err returns the sticky body-framing error, if any (short read, malformed
// chunk header, or an underlying read error). Data after the body is not
// examined, so it never sets this error.
func (b *InputBody) Err() error { return b.err }

// Eof reports whether the body has been fully consumed (or ended in
// error).
func (b *InputBody) Eof() bool { return b.eof }

// Read implements io.Reader, delivering at most len(p) bytes of body
// payload, transparently unwrapping chunk framing.
func (b *InputBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.eof {
		return 0, io.EOF
	}
	if b.chunked {
		return b.readChunked(p)
	}
	return b.readLengthDelimited(p)
}

func (b *InputBody) readLengthDelimited(p []byte) (int, error) {
	remaining := b.contentLength - b.read
	if remaining <= 0 {
		b.eof = true
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := b.r.Read(p)
	b.read += int64(n)
	if err != nil && err != io.EOF {
		b.err = err
	}
	if b.read >= b.contentLength {
		b.eof = true
	}
	return n, err
}

// readChunked implements the full multi-chunk read loop required by §4.3:
// read a hex length line (ignoring ";"-delimited chunk extensions), read
// that many payload bytes, consume the trailing CRLF, and repeat until a
// zero-size chunk, whose optional trailer headers are read and discarded.
func (b *InputBody) readChunked(p []byte) (int, error) {
	for b.chunkLeft == 0 {
		size, err := b.readChunkSize()
		if err != nil {
			b.err = err
			return 0, err
		}
		if size == 0 {
			if err := b.discardTrailer(); err != nil {
				b.err = err
				return 0, err
			}
			b.eof = true
			return 0, io.EOF
		}
		b.chunkLeft = size
		b.contentLength += size
	}

	if int64(len(p)) > b.chunkLeft {
		p = p[:b.chunkLeft]
	}
	n, err := b.r.Read(p)
	b.chunkLeft -= int64(n)
	b.read += int64(n)
	if err != nil && err != io.EOF {
		b.err = err
		return n, err
	}
	if b.chunkLeft == 0 {
		if _, err := b.r.Discard(2); err != nil { // trailing CRLF
			b.err = err
			return n, err
		}
	}
	return n, nil
}

func (b *InputBody) readChunkSize() (int64, error) {
	line, err := b.r.ReadString('\n')
	if err != nil {
		return 0, err
	}
	line = strings.TrimRight(line, "\r\n")
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i] // discard chunk extensions
	}
	line = strings.TrimSpace(line)
	n, err := strconv.ParseInt(line, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("body: malformed chunk size %q: %w", line, err)
	}
	return n, nil
}

func (b *InputBody) discardTrailer() error {
	for {
		line, err := b.r.ReadString('\n')
		if err != nil {
			return err
		}
		if line == "\r\n" || line == "\n" {
			return nil
		}
	}
}

// ReadAll reads and returns the entire body. On success it returns exactly
// ContentLength() bytes for length-delimited bodies (or every chunk for
// chunked bodies); a short read sets the sticky error flag and is also
// returned. Bytes that follow the framed body are left unread and are not
// checked, so trailing data is not reported. When preserveInput is true the consumed
// bytes are still returned even if an error occurred, so the caller can
// inspect what was read so far.
func (b *InputBody) ReadAll(preserveInput bool) ([]byte, error) {
	buf, err := io.ReadAll(readerFunc(b.Read))
	if err != nil && err != io.EOF {
		b.err = err
	}
	if !b.chunked && b.contentLength >= 0 && int64(len(buf)) != b.contentLength {
		b.err = fmt.Errorf("body: short read: got %d bytes, want %d", len(buf), b.contentLength)
	}
	if b.err != nil && !preserveInput {
		return nil, b.err
	}
	return buf, b.err
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// OutputBody is an in-memory buffer for a body to be written, plus its
// declared Content-Type.
type OutputBody struct {
	contentHeader
	buf     *bytebufferpool.ByteBuffer
	started bool
}

// NewOutputBody returns an empty, not-yet-started OutputBody.
func NewOutputBody() *OutputBody {
	return &OutputBody{}
}

// StartOutput initializes the buffer and declares its Content-Type. Safe to
// call again to reset.
func (b *OutputBody) StartOutput(contentType string) {
	if b.buf != nil {
		bytebufferpool.Put(b.buf)
	}
	b.buf = bytebufferpool.Get()
	b.contentType = contentType
	b.contentLength = 0
	b.started = true
}

// StopOutput clears all buffered data and disables body emission, for
// responses whose status forbids a body (1xx, 204, 304). HEAD responses
// keep their buffered body so its length can still be reported.
func (b *OutputBody) StopOutput() {
	if b.buf != nil {
		bytebufferpool.Put(b.buf)
		b.buf = nil
	}
	b.contentType = ""
	b.contentLength = 0
	b.started = false
}

// Started reports whether StartOutput has been called since the last
// StopOutput.
func (b *OutputBody) Started() bool { return b.started }

// Write appends p to the buffer, starting output with an empty
// Content-Type if not already started.
func (b *OutputBody) Write(p []byte) (int, error) {
	if !b.started {
		b.StartOutput("")
	}
	n, err := b.buf.Write(p)
	b.contentLength += int64(n)
	return n, err
}

// Bytes returns the buffered body.
func (b *OutputBody) Bytes() []byte {
	if b.buf == nil {
		return nil
	}
	return b.buf.Bytes()
}

// WriteTo writes the buffered body to w.
func (b *OutputBody) WriteTo(w io.Writer) (int64, error) {
	if b.buf == nil {
		return 0, nil
	}
	n, err := w.Write(b.buf.Bytes())
	return int64(n), err
}
