// Package uri implements the URI model: parsing and formatting per RFC 3986
// (scheme, authority, path, query, fragment), percent-encoding, and the
// application/x-www-form-urlencoded "+"/space convention.
package uri

import "strings"

// Uri is a parsed URI reference.
type Uri struct {
	Scheme    string
	Authority Authority
	Path      Path
	Query     *Query
	Fragment  string
	// hasAuthority/hasQuery/hasFragment distinguish "absent" from "present
	// but empty" so Full() only emits delimiters for components that were
	// actually in the source text.
	hasAuthority bool
	hasQuery     bool
	hasFragment  bool
}

// isSchemeChar reports whether b may appear after the first character of a
// scheme token (ALPHA (ALPHA|DIGIT|"+"|"-"|".")*).
func isSchemeChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '+' || b == '-' || b == '.':
		return true
	}
	return false
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// splitScheme detects a leading "scheme:" and returns the scheme (without
// colon) and the remainder, or "" and the original string when no scheme is
// present.
func splitScheme(s string) (scheme, rest string) {
	if s == "" || !isAlpha(s[0]) {
		return "", s
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == ':' {
			return s[:i], s[i+1:]
		}
		if !isSchemeChar(c) {
			return "", s
		}
	}
	return "", s
}

// Parse parses a URI reference matching:
//
//	[scheme ":"] ["//" authority] path ["?" query] ["#" fragment]
func Parse(s string) *Uri {
	u := &Uri{}

	u.Scheme, s = splitScheme(s)

	if strings.HasPrefix(s, "//") {
		s = s[2:]
		end := strings.IndexAny(s, "/?#")
		var authorityPart string
		if end < 0 {
			authorityPart, s = s, ""
		} else {
			authorityPart, s = s[:end], s[end:]
		}
		u.Authority = ParseAuthority(authorityPart)
		u.hasAuthority = true
	}

	pathPart := s
	if h := strings.IndexAny(s, "?#"); h >= 0 {
		pathPart = s[:h]
		s = s[h:]
	} else {
		s = ""
	}
	u.Path = ParsePath(pathPart)

	if strings.HasPrefix(s, "?") {
		s = s[1:]
		queryPart := s
		if h := strings.IndexByte(s, '#'); h >= 0 {
			queryPart = s[:h]
			s = s[h:]
		} else {
			s = ""
		}
		u.Query = ParseQueryString(queryPart)
		u.hasQuery = true
	}

	if strings.HasPrefix(s, "#") {
		u.Fragment = s[1:]
		u.hasFragment = true
	}

	return u
}

// Full reconstructs the canonical string form of u, concatenating only the
// components that are present with their delimiters.
func (u *Uri) Full() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}
	if u.hasAuthority || !u.Authority.Empty() {
		b.WriteString("//")
		b.WriteString(u.Authority.Full())
	}
	b.WriteString(u.Path.Encoded())
	if u.hasQuery || (u.Query != nil && u.Query.Len() > 0) {
		if u.Query == nil {
			u.Query = NewQuery()
		}
		b.WriteString(u.Query.BuildQueryString(true))
	}
	if u.hasFragment {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

func (u *Uri) String() string { return u.Full() }

// Equal reports structural equality between u and other.
func (u *Uri) Equal(other *Uri) bool {
	if other == nil {
		return false
	}
	if u.Scheme != other.Scheme || u.Fragment != other.Fragment {
		return false
	}
	if !u.Authority.Equal(other.Authority) {
		return false
	}
	if !u.Path.Equal(other.Path) {
		return false
	}
	return queriesEqual(u.Query, other.Query)
}

func queriesEqual(a, b *Query) bool {
	if a == nil {
		a = NewQuery()
	}
	if b == nil {
		b = NewQuery()
	}
	return a.Equal(b)
}

// Resolve resolves reference ref against base u, per RFC 3986 §5.3,
// restricted to the subset this library needs: an absolute ref is returned
// as-is; a ref with an authority replaces u's authority and path;
// otherwise a non-empty ref path replaces u's path whole (a relative ref
// path is not merged with u's directory) and an empty one keeps u's path.
// ref's query replaces u's when present, otherwise u's query is kept; only
// ref's fragment is carried over. This is a supplement beyond the base spec, used only
// when a caller opts into following a redirect (see agent.Client).
func (u *Uri) Resolve(ref *Uri) *Uri {
	if ref.Scheme != "" {
		return ref
	}
	out := &Uri{Scheme: u.Scheme}
	if ref.hasAuthority {
		out.Authority = ref.Authority
		out.hasAuthority = true
		out.Path = ref.Path
	} else {
		out.Authority = u.Authority
		out.hasAuthority = u.hasAuthority
		if len(ref.Path) == 0 {
			out.Path = u.Path
		} else {
			out.Path = ref.Path
		}
	}
	if ref.hasQuery {
		out.Query, out.hasQuery = ref.Query, true
	} else {
		out.Query, out.hasQuery = u.Query, u.hasQuery
	}
	if ref.hasFragment {
		out.Fragment, out.hasFragment = ref.Fragment, true
	}
	return out
}
