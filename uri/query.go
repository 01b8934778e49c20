package uri

import (
	"strings"

	"github.com/curol/agentnet/internal/omap"
)

// Query is the ordered multimap of decoded (key, value) pairs that make up
// a URI's query component. A bare token "k" with no "=" decodes to the pair
// (k, "").
type Query struct {
	m *omap.Map
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{m: omap.New(false)}
}

// ParseQueryString parses a raw query string (without the leading "?") in
// form-encoding mode: "+" decodes to a space in both keys and values.
func ParseQueryString(raw string) *Query {
	q := NewQuery()
	if raw == "" {
		return q
	}
	for _, piece := range strings.Split(raw, "&") {
		if piece == "" {
			continue
		}
		if eq := strings.IndexByte(piece, '='); eq >= 0 {
			k := Urldecode(piece[:eq], true)
			v := Urldecode(piece[eq+1:], true)
			q.m.Add(k, v)
		} else {
			q.m.Add(Urldecode(piece, true), "")
		}
	}
	return q
}

// Add appends a (key, value) pair.
func (q *Query) Add(key, value string) { q.m.Add(key, value) }

// Set replaces all entries for key with a single (key, value) pair.
func (q *Query) Set(key, value string) { q.m.Set(key, value) }

// Get returns the first value for key.
func (q *Query) Get(key string) (string, bool) { return q.m.Get(key) }

// GetAll returns every value for key, in insertion order.
func (q *Query) GetAll(key string) []string { return q.m.GetAll(key) }

// Del removes all entries for key.
func (q *Query) Del(key string) { q.m.Del(key) }

// Len returns the number of pairs, counting duplicates.
func (q *Query) Len() int { return q.m.Len() }

// Pairs returns the (key, value) pairs in insertion order.
func (q *Query) Pairs() []omap.Pair { return q.m.Pairs() }

// Equal reports whether q and other hold the same ordered pairs.
func (q *Query) Equal(other *Query) bool {
	if other == nil {
		return q.m.Len() == 0
	}
	return q.m.Equals(other.m)
}

// BuildQueryString encodes q in form mode. When leadingQuestionMark is true
// the result is prefixed with "?" (empty query still yields "", never "?").
func (q *Query) BuildQueryString(leadingQuestionMark bool) string {
	if q.m.Len() == 0 {
		return ""
	}
	var b strings.Builder
	if leadingQuestionMark {
		b.WriteByte('?')
	}
	for i, p := range q.m.Pairs() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(Urlencode(p.Key, true))
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(Urlencode(p.Value, true))
		}
	}
	return b.String()
}
