package uri

import (
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Authority is the "[user[:password]@]host[:port]" component of a URI.
//
// User and Password are nil when absent (as opposed to present-but-empty),
// mirroring HttPony's std::optional<std::string> fields — see
// include/httpony/uri.hpp in original_source.
type Authority struct {
	User     *string
	Password *string
	Host     string
	Port     *uint16
}

// Empty reports whether every field of a is at its zero value.
func (a Authority) Empty() bool {
	return a.User == nil && a.Password == nil && a.Host == "" && a.Port == nil
}

// Equal reports structural equality between a and b.
func (a Authority) Equal(b Authority) bool {
	return strPtrEqual(a.User, b.User) &&
		strPtrEqual(a.Password, b.Password) &&
		a.Host == b.Host &&
		u16PtrEqual(a.Port, b.Port)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func u16PtrEqual(a, b *uint16) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptr[T any](v T) *T { return &v }

// ParseAuthority parses the authority component of a URI: the text between
// "//" and the next "/", "?", "#", or end of input.
func ParseAuthority(s string) Authority {
	var a Authority

	if s == "" {
		return a
	}

	// userinfo precedes the last '@' (an authority's host/port may not
	// contain '@', but a password could theoretically; RFC 3986 says the
	// last '@' wins).
	rest := s
	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		userinfo := s[:at]
		rest = s[at+1:]
		if colon := strings.IndexByte(userinfo, ':'); colon >= 0 {
			a.User = ptr(userinfo[:colon])
			a.Password = ptr(userinfo[colon+1:])
		} else {
			a.User = ptr(userinfo)
		}
	}

	a.Host, a.Port = parseHostPort(rest)
	return a
}

// parseHostPort splits "host", "host:port", "[ipv6]", or "[ipv6]:port".
func parseHostPort(s string) (string, *uint16) {
	if s == "" {
		return "", nil
	}

	if s[0] == '[' {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			// Malformed bracket: treat the whole thing as host, no port.
			return s, nil
		}
		host := s[:end+1]
		rest := s[end+1:]
		if strings.HasPrefix(rest, ":") {
			if p, ok := parsePort(rest[1:]); ok {
				return host, &p
			}
		}
		return host, nil
	}

	if colon := strings.LastIndexByte(s, ':'); colon >= 0 {
		if p, ok := parsePort(s[colon+1:]); ok {
			return s[:colon], &p
		}
	}
	return s, nil
}

func parsePort(s string) (uint16, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}

// Full reconstructs the authority's canonical string form.
func (a Authority) Full() string {
	if a.Empty() {
		return ""
	}
	var b strings.Builder
	if a.User != nil {
		b.WriteString(*a.User)
		if a.Password != nil {
			b.WriteByte(':')
			b.WriteString(*a.Password)
		}
		b.WriteByte('@')
	}
	b.WriteString(a.Host)
	if a.Port != nil {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(*a.Port), 10))
	}
	return b.String()
}

func (a Authority) String() string { return a.Full() }

// NormalizedHost returns a.Host converted to its ASCII (Punycode) form when
// it contains non-ASCII characters, for use in the Host header and outbound
// connection dialing. Bracketed IPv6 literals and already-ASCII hosts are
// returned unchanged.
func (a Authority) NormalizedHost() (string, error) {
	if a.Host == "" || a.Host[0] == '[' || isASCII(a.Host) {
		return a.Host, nil
	}
	return idna.Lookup.ToASCII(a.Host)
}

// HostPort returns "host:port" built from NormalizedHost and a.Port,
// falling back to defaultPort when a.Port is absent. Unlike Full, the
// result never includes userinfo, so it is safe to use as a dial address
// or a Host header value even when the authority carries credentials.
func (a Authority) HostPort(defaultPort uint16) (string, error) {
	host, err := a.NormalizedHost()
	if err != nil {
		return "", err
	}
	port := defaultPort
	if a.Port != nil {
		port = *a.Port
	}
	return host + ":" + strconv.FormatUint(uint64(port), 10), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
