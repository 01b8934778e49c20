package httpwire

import (
	"strings"

	"github.com/curol/agentnet/internal/omap"
)

// MimeType is a parsed Content-Type: "type/subtype; k=v; k=v".
type MimeType struct {
	Type       string
	Subtype    string
	Parameters *omap.Map
}

// ParseMimeType parses a Content-Type header value.
func ParseMimeType(s string) MimeType {
	m := MimeType{Parameters: omap.New(true)}
	parts := strings.Split(s, ";")
	if len(parts) == 0 {
		return m
	}
	typeSlash := strings.TrimSpace(parts[0])
	if slash := strings.IndexByte(typeSlash, '/'); slash >= 0 {
		m.Type = typeSlash[:slash]
		m.Subtype = typeSlash[slash+1:]
	} else {
		m.Type = typeSlash
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if eq := strings.IndexByte(p, '='); eq >= 0 {
			key := strings.TrimSpace(p[:eq])
			value := strings.Trim(strings.TrimSpace(p[eq+1:]), `"`)
			m.Parameters.Add(key, value)
		}
	}
	return m
}

// String renders "type/subtype; k=v; k=v".
func (m MimeType) String() string {
	var b strings.Builder
	b.WriteString(m.Type)
	b.WriteByte('/')
	b.WriteString(m.Subtype)
	for _, p := range m.Parameters.Pairs() {
		b.WriteString("; ")
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// IsFormURLEncoded reports whether the Content-Type is "application/x-www-form-urlencoded".
func (m MimeType) IsFormURLEncoded() bool {
	return strings.EqualFold(m.Type, "application") && strings.EqualFold(m.Subtype, "x-www-form-urlencoded")
}

// IsMultipartFormData reports whether the Content-Type is
// "multipart/form-data".
func (m MimeType) IsMultipartFormData() bool {
	return strings.EqualFold(m.Type, "multipart") && strings.EqualFold(m.Subtype, "form-data")
}

// Boundary returns the "boundary" parameter, if present.
func (m MimeType) Boundary() (string, bool) {
	return m.Parameters.Get("boundary")
}
