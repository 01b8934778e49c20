package body

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeaders struct {
	te, cl, ct string
}

func (h fakeHeaders) Get(name string) string {
	switch name {
	case "Transfer-Encoding":
		return h.te
	case "Content-Length":
		return h.cl
	case "Content-Type":
		return h.ct
	}
	return ""
}

func (h fakeHeaders) IsChunked() bool { return strings.EqualFold(h.te, "chunked") }

func (h fakeHeaders) ContentLength() int64 {
	if h.cl == "" {
		return -1
	}
	n := int64(0)
	for i := 0; i < len(h.cl); i++ {
		n = n*10 + int64(h.cl[i]-'0')
	}
	return n
}

func (h fakeHeaders) ContentType() string { return h.ct }

func TestInputBodyLengthDelimitedReadAll(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("hello world"))
	b := NewInputBody(r, fakeHeaders{cl: "11", ct: "text/plain"})

	data, err := b.ReadAll(false)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.True(t, b.Eof())
	assert.Nil(t, b.Err())
}

func TestInputBodyShortReadSetsError(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("short"))
	b := NewInputBody(r, fakeHeaders{cl: "100"})

	_, err := b.ReadAll(false)
	assert.Error(t, err)
	assert.Error(t, b.Err())
}

func TestInputBodyEmptyWhenNoFraming(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))
	b := NewInputBody(r, fakeHeaders{})
	assert.True(t, b.Eof())
	data, err := b.ReadAll(false)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestInputBodyMultiChunkRead(t *testing.T) {
	wire := "5\r\nHello\r\n6\r\n World\r\n0\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(wire))
	b := NewInputBody(r, fakeHeaders{te: "chunked"})

	data, err := b.ReadAll(false)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", string(data))
	assert.True(t, b.Chunked())
	assert.True(t, b.Eof())
}

func TestInputBodyChunkedIgnoresExtensionsAndTrailer(t *testing.T) {
	wire := "5;ext=1\r\nHello\r\n0\r\nX-Trailer: ignored\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(wire))
	b := NewInputBody(r, fakeHeaders{te: "chunked"})

	data, err := b.ReadAll(false)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))
}

func TestInputBodyContentLengthWinsOverChunkedWhenBothPresent(t *testing.T) {
	// §4.3 priority: chunked only applies "with no Content-Length".
	r := bufio.NewReader(strings.NewReader("hi"))
	b := NewInputBody(r, fakeHeaders{te: "chunked", cl: "2"})
	assert.False(t, b.Chunked())
}

func TestOutputBodyStartWriteStop(t *testing.T) {
	b := NewOutputBody()
	assert.False(t, b.Started())

	b.StartOutput("text/plain")
	n, err := b.Write([]byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(2), b.ContentLength())
	assert.Equal(t, "text/plain", b.ContentType())

	b.StopOutput()
	assert.False(t, b.Started())
	assert.Equal(t, int64(0), b.ContentLength())
	assert.Empty(t, b.Bytes())
}

func TestOutputBodyWriteStartsImplicitly(t *testing.T) {
	b := NewOutputBody()
	b.Write([]byte("abc"))
	assert.True(t, b.Started())
	assert.Equal(t, "abc", string(b.Bytes()))
}
