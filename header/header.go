// Package header implements the ordered, case-insensitive header multimap
// and the cookie and authentication models built on top of it.
//
// Grounded on the teacher's message/hashmap.HashMap method set
// (Set/Get/Del/Clone/Keys/Equals/Merge), generalized via internal/omap to
// preserve insertion order and duplicate values, as RFC 7230 headers
// require.
package header

import (
	"strings"

	"github.com/curol/agentnet/internal/omap"
)

// Headers is an ordered, case-insensitive multimap of header names to
// values.
type Headers struct {
	m *omap.Map
}

// New returns an empty Headers.
func New() *Headers {
	return &Headers{m: omap.New(true)}
}

// Add appends a (name, value) pair without disturbing existing entries for
// name.
func (h *Headers) Add(name, value string) { h.m.Add(name, value) }

// Set replaces every existing entry for name with a single (name, value)
// pair.
func (h *Headers) Set(name, value string) { h.m.Set(name, value) }

// Get returns the first value for name.
func (h *Headers) Get(name string) string {
	v, _ := h.m.Get(name)
	return v
}

// Lookup is like Get but also reports whether name was present.
func (h *Headers) Lookup(name string) (string, bool) { return h.m.Get(name) }

// Values returns every value for name, in insertion order.
func (h *Headers) Values(name string) []string { return h.m.GetAll(name) }

// Contains reports whether any entry matches name.
func (h *Headers) Contains(name string) bool { return h.m.Contains(name) }

// Del removes every entry matching name.
func (h *Headers) Del(name string) { h.m.Del(name) }

// Len returns the number of entries, counting duplicates.
func (h *Headers) Len() int { return h.m.Len() }

// Pairs returns the (name, value) pairs in insertion order.
func (h *Headers) Pairs() []omap.Pair { return h.m.Pairs() }

// Clone returns a deep copy of h.
func (h *Headers) Clone() *Headers { return &Headers{m: h.m.Clone()} }

// Equals reports whether h and other hold the same ordered pairs
// (case-insensitively on names).
func (h *Headers) Equals(other *Headers) bool {
	if other == nil {
		return h.m.Len() == 0
	}
	return h.m.Equals(other.m)
}

// ContentLength returns the parsed Content-Length header value, or -1 if
// absent or not a valid non-negative integer.
func (h *Headers) ContentLength() int64 {
	v := h.Get("Content-Length")
	if v == "" {
		return -1
	}
	n, err := parseUint(v)
	if err != nil {
		return -1
	}
	return n
}

// ContentType returns the Content-Type header value, or "" if absent.
func (h *Headers) ContentType() string { return h.Get("Content-Type") }

// IsChunked reports whether Transfer-Encoding names "chunked" as its final
// (and, in this implementation's supported subset, only) coding.
func (h *Headers) IsChunked() bool {
	te := h.Get("Transfer-Encoding")
	if te == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(te), "chunked")
}

func parseUint(s string) (int64, error) {
	var n int64
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconvErr
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, strconvErr
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

var strconvErr = errNotNumeric{}

type errNotNumeric struct{}

func (errNotNumeric) Error() string { return "not a numeric value" }
