package header

import (
	"strconv"
	"strings"
	"time"

	"github.com/curol/agentnet/internal/omap"
)

// Cookie is a single name/value pair plus its ordered attribute map.
// Grounded on the teacher's http/cookie.Cookie struct, reshaped so
// attributes live in an ordered map (per spec §3) instead of fixed fields,
// while keeping SameSite/Secure/HttpOnly as typed accessors for convenience.
type Cookie struct {
	Name       string
	Value      string
	Attributes *omap.Map // ordered, case-insensitive attribute names
}

// NewCookie returns a Cookie with an empty attribute map.
func NewCookie(name, value string) *Cookie {
	return &Cookie{Name: name, Value: value, Attributes: omap.New(true)}
}

func (c *Cookie) attr(name string) (string, bool) { return c.Attributes.Get(name) }

// Path returns the cookie's Path attribute, or "" if unset.
func (c *Cookie) Path() string { v, _ := c.attr("Path"); return v }

// Domain returns the cookie's Domain attribute, or "" if unset.
func (c *Cookie) Domain() string { v, _ := c.attr("Domain"); return v }

// Secure reports whether the Secure attribute is set.
func (c *Cookie) Secure() bool { return c.Attributes.Contains("Secure") }

// HttpOnly reports whether the HttpOnly attribute is set.
func (c *Cookie) HttpOnly() bool { return c.Attributes.Contains("HttpOnly") }

// SameSite returns the cookie's SameSite attribute, or "" if unset.
func (c *Cookie) SameSite() string { v, _ := c.attr("SameSite"); return v }

// MaxAge returns the cookie's parsed Max-Age attribute and whether it was
// present and numeric.
func (c *Cookie) MaxAge() (int, bool) {
	v, ok := c.attr("Max-Age")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Expires returns the cookie's parsed Expires attribute and whether parsing
// succeeded.
func (c *Cookie) Expires() (time.Time, bool) {
	v, ok := c.attr("Expires")
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC1123, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String renders the cookie as it appears in a request Cookie header
// ("name=value"); attributes are not included.
func (c *Cookie) String() string { return c.Name + "=" + c.Value }

// SetCookieString renders the cookie as it appears in a Set-Cookie response
// header, appending attributes as "; k=v" or bare "; HttpOnly"/"; Secure".
func (c *Cookie) SetCookieString() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	for _, p := range c.Attributes.Pairs() {
		b.WriteString("; ")
		b.WriteString(p.Key)
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
	}
	return b.String()
}

// CookieJar is an ordered multimap of cookie name to Cookie, as built by
// parsing a Cookie or Set-Cookie header.
type CookieJar struct {
	cookies []*Cookie
}

// NewCookieJar returns an empty CookieJar.
func NewCookieJar() *CookieJar { return &CookieJar{} }

// Add appends a cookie to the jar.
func (j *CookieJar) Add(c *Cookie) { j.cookies = append(j.cookies, c) }

// Get returns the first cookie named name.
func (j *CookieJar) Get(name string) (*Cookie, bool) {
	for _, c := range j.cookies {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// All returns every cookie in the jar, in insertion order.
func (j *CookieJar) All() []*Cookie { return j.cookies }

// ParseCookieHeader parses a request "Cookie" header value: a
// semicolon-separated list of "k=v" pairs with both sides trimmed.
func ParseCookieHeader(raw string) *CookieJar {
	jar := NewCookieJar()
	for _, part := range splitCookiePairs(raw) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value := splitCookiePair(part)
		jar.Add(NewCookie(name, value))
	}
	return jar
}

// ParseSetCookieHeader parses a single response "Set-Cookie" header value:
// the first "k=v" pair is the cookie itself, the rest are attributes.
func ParseSetCookieHeader(raw string) *Cookie {
	parts := splitCookiePairs(raw)
	if len(parts) == 0 {
		return NewCookie("", "")
	}
	name, value := splitCookiePair(strings.TrimSpace(parts[0]))
	c := NewCookie(name, value)
	for _, attr := range parts[1:] {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			c.Attributes.Add(strings.TrimSpace(attr[:eq]), strings.TrimSpace(attr[eq+1:]))
		} else {
			c.Attributes.Add(attr, "")
		}
	}
	return c
}

// splitCookiePairs splits a cookie-list on ";" honoring double-quoted
// values, so a literal ";" inside quotes does not end the pair early.
func splitCookiePairs(raw string) []string {
	var parts []string
	start := 0
	inQuotes := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuotes:
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == ';' && !inQuotes:
			parts = append(parts, raw[start:i])
			start = i + 1
		}
	}
	parts = append(parts, raw[start:])
	return parts
}

func splitCookiePair(part string) (name, value string) {
	eq := strings.IndexByte(part, '=')
	if eq < 0 {
		return strings.TrimSpace(part), ""
	}
	name = strings.TrimSpace(part[:eq])
	value = strings.TrimSpace(part[eq+1:])
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = unescapeQuoted(value[1 : len(value)-1])
	}
	return name, value
}

func unescapeQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
