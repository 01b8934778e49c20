package httpwire

import (
	"fmt"
	"strconv"
	"strings"
)

// Protocol is an HTTP version: a name and a major/minor pair.
type Protocol struct {
	Name  string
	Major int
	Minor int
}

// Recognized protocol constants.
var (
	HTTP10 = Protocol{Name: "HTTP", Major: 1, Minor: 0}
	HTTP11 = Protocol{Name: "HTTP", Major: 1, Minor: 1}
)

// String renders "HTTP/major.minor".
func (p Protocol) String() string {
	return fmt.Sprintf("%s/%d.%d", p.Name, p.Major, p.Minor)
}

// ParseProtocol parses a "NAME/MAJOR.MINOR" token, e.g. "HTTP/1.1".
func ParseProtocol(s string) (Protocol, bool) {
	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return Protocol{}, false
	}
	name := s[:slash]
	rest := s[slash+1:]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return Protocol{}, false
	}
	major, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return Protocol{}, false
	}
	minor, err := strconv.Atoi(rest[dot+1:])
	if err != nil {
		return Protocol{}, false
	}
	return Protocol{Name: name, Major: major, Minor: minor}, true
}

// Supported reports whether p is a protocol version this package can parse
// and format (HTTP/1.0 or HTTP/1.1).
func (p Protocol) Supported() bool {
	return strings.EqualFold(p.Name, "HTTP") && p.Major == 1 && (p.Minor == 0 || p.Minor == 1)
}
