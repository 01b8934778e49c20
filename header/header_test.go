package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersCaseInsensitiveLookup(t *testing.T) {
	h := New()
	h.Add("Content-Type", "text/plain")
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.True(t, h.Contains("CONTENT-TYPE"))
}

func TestHeadersPreservesDuplicatesInOrder(t *testing.T) {
	h := New()
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	assert.Equal(t, []string{"a=1", "b=2"}, h.Values("Set-Cookie"))
	assert.Equal(t, "a=1", h.Get("Set-Cookie"))
}

func TestHeadersSetReplacesAllMatches(t *testing.T) {
	h := New()
	h.Add("X-Thing", "1")
	h.Add("X-Thing", "2")
	h.Set("X-Thing", "3")
	assert.Equal(t, []string{"3"}, h.Values("X-Thing"))
}

func TestHeadersDelRemovesAllMatches(t *testing.T) {
	h := New()
	h.Add("X", "1")
	h.Add("X", "2")
	h.Del("X")
	assert.False(t, h.Contains("X"))
}

func TestIsChunked(t *testing.T) {
	h := New()
	assert.False(t, h.IsChunked())
	h.Set("Transfer-Encoding", "chunked")
	assert.True(t, h.IsChunked())
}

func TestContentLength(t *testing.T) {
	h := New()
	assert.Equal(t, int64(-1), h.ContentLength())
	h.Set("Content-Length", "42")
	assert.Equal(t, int64(42), h.ContentLength())
}

func TestParseCookieHeader(t *testing.T) {
	jar := ParseCookieHeader(`a=1; b="quoted; value"; c=3`)
	a, ok := jar.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", a.Value)

	b, ok := jar.Get("b")
	require.True(t, ok)
	assert.Equal(t, "quoted; value", b.Value)

	c, ok := jar.Get("c")
	require.True(t, ok)
	assert.Equal(t, "3", c.Value)
}

func TestParseSetCookieHeaderAttributes(t *testing.T) {
	c := ParseSetCookieHeader("session=abc123; Path=/; HttpOnly; Secure; SameSite=Strict")
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, "abc123", c.Value)
	assert.Equal(t, "/", c.Path())
	assert.True(t, c.HttpOnly())
	assert.True(t, c.Secure())
	assert.Equal(t, "Strict", c.SameSite())
}

func TestSetCookieStringRoundTrip(t *testing.T) {
	c := NewCookie("name", "value")
	c.Attributes.Add("Path", "/app")
	c.Attributes.Add("HttpOnly", "")
	rendered := c.SetCookieString()
	reparsed := ParseSetCookieHeader(rendered)
	assert.Equal(t, c.Name, reparsed.Name)
	assert.Equal(t, c.Value, reparsed.Value)
	assert.Equal(t, "/app", reparsed.Path())
	assert.True(t, reparsed.HttpOnly())
}

func TestParseAuthBasic(t *testing.T) {
	a := ParseAuth("Basic dXNlcjpwYXNz") // "user:pass"
	assert.Equal(t, "Basic", a.Scheme)
	assert.Equal(t, "user", a.User)
	assert.Equal(t, "pass", a.Password)
}

func TestParseAuthDigestParams(t *testing.T) {
	a := ParseAuth(`Digest username="foo", realm="test realm", nonce="abc", response="xyz"`)
	assert.Equal(t, "Digest", a.Scheme)
	assert.Equal(t, "test realm", a.Realm)
	v, ok := a.Parameters.Get("username")
	assert.True(t, ok)
	assert.Equal(t, "foo", v)
}

func TestParseAuthEmpty(t *testing.T) {
	a := ParseAuth("")
	assert.True(t, a.Empty())
}

func TestParseAuthChallengesMultipleGroups(t *testing.T) {
	challenges := ParseAuthChallenges(`Basic realm="basic realm", Digest realm="digest realm", qop="auth"`)
	require.Len(t, challenges, 2)
	assert.Equal(t, "Basic", challenges[0].Scheme)
	assert.Equal(t, "basic realm", challenges[0].Realm)
	assert.Equal(t, "Digest", challenges[1].Scheme)
	assert.Equal(t, "digest realm", challenges[1].Realm)
	qop, ok := challenges[1].Parameters.Get("qop")
	assert.True(t, ok)
	assert.Equal(t, "auth", qop)
}

func TestParseAuthChallengesSingleGroup(t *testing.T) {
	challenges := ParseAuthChallenges(`Bearer realm="api"`)
	require.Len(t, challenges, 1)
	assert.Equal(t, "Bearer", challenges[0].Scheme)
	assert.Equal(t, "api", challenges[0].Realm)
}
