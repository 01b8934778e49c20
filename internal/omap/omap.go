// Package omap implements the ordered multimap that backs both the header
// and query stores: a key can repeat, insertion order is preserved, and
// lookups can be folded case-insensitively.
//
// This generalizes the teacher's message/hashmap.HashMap (a plain
// map[string]string with Set/Get/Del/Clone/Keys/Equals) to preserve order
// and duplicates, since both Headers and Query need that and a plain map
// cannot provide it.
package omap

import "strings"

// Pair is a single key/value entry.
type Pair struct {
	Key   string
	Value string
}

// Map is an ordered multimap of string keys to string values.
type Map struct {
	pairs    []Pair
	foldCase bool
}

// New returns an empty Map. When foldCase is true, key comparisons are
// case-insensitive ASCII (used for Headers); when false, comparisons are
// exact (used for Query).
func New(foldCase bool) *Map {
	return &Map{foldCase: foldCase}
}

func (m *Map) key(k string) string {
	if m.foldCase {
		return strings.ToLower(k)
	}
	return k
}

func (m *Map) equalKey(a, b string) bool {
	if m.foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Add appends a new (key, value) pair, preserving any existing entries for
// the same key.
func (m *Map) Add(key, value string) {
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Set replaces all existing entries for key with a single (key, value)
// pair, appended at the position of the first existing match, or at the end
// if key is not present.
func (m *Map) Set(key, value string) {
	for i := range m.pairs {
		if m.equalKey(m.pairs[i].Key, key) {
			m.pairs[i] = Pair{Key: key, Value: value}
			m.deleteFrom(i+1, key)
			return
		}
	}
	m.Add(key, value)
}

func (m *Map) deleteFrom(start int, key string) {
	out := m.pairs[:start]
	for _, p := range m.pairs[start:] {
		if !m.equalKey(p.Key, key) {
			out = append(out, p)
		}
	}
	m.pairs = out
}

// Get returns the value of the first matching entry and whether it exists.
func (m *Map) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if m.equalKey(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns the values of every entry matching key, in insertion order.
func (m *Map) GetAll(key string) []string {
	var values []string
	for _, p := range m.pairs {
		if m.equalKey(p.Key, key) {
			values = append(values, p.Value)
		}
	}
	return values
}

// Contains reports whether any entry matches key.
func (m *Map) Contains(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Del removes every entry matching key.
func (m *Map) Del(key string) {
	out := m.pairs[:0]
	for _, p := range m.pairs {
		if !m.equalKey(p.Key, key) {
			out = append(out, p)
		}
	}
	m.pairs = out
}

// Len returns the number of entries, counting duplicates.
func (m *Map) Len() int {
	return len(m.pairs)
}

// Pairs returns the entries in insertion order. The returned slice must not
// be mutated by the caller.
func (m *Map) Pairs() []Pair {
	return m.pairs
}

// Keys returns the distinct keys in first-seen order.
func (m *Map) Keys() []string {
	seen := make(map[string]bool, len(m.pairs))
	keys := make([]string, 0, len(m.pairs))
	for _, p := range m.pairs {
		k := m.key(p.Key)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Clone returns a deep copy of m.
func (m *Map) Clone() *Map {
	c := &Map{foldCase: m.foldCase, pairs: make([]Pair, len(m.pairs))}
	copy(c.pairs, m.pairs)
	return c
}

// Merge appends every entry of other to m, preserving duplicates.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	m.pairs = append(m.pairs, other.pairs...)
}

// Equals reports whether m and other contain the same ordered sequence of
// pairs.
func (m *Map) Equals(other *Map) bool {
	if other == nil {
		return len(m.pairs) == 0
	}
	if len(m.pairs) != len(other.pairs) {
		return false
	}
	for i, p := range m.pairs {
		o := other.pairs[i]
		if !m.equalKey(p.Key, o.Key) || p.Value != o.Value {
			return false
		}
	}
	return true
}

// Clear removes all entries.
func (m *Map) Clear() {
	m.pairs = nil
}
