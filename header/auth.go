package header

import (
	"encoding/base64"
	"strings"

	"github.com/curol/agentnet/internal/omap"
)

// Auth models a parsed Authorization (or Proxy-Authorization) header.
// Empty iff Scheme == "".
type Auth struct {
	Scheme     string
	User       string
	Password   string
	Raw        string // the original header value
	Realm      string
	Parameters *omap.Map // ordered k=v parameters, for non-Basic schemes
}

// Empty reports whether a carries no scheme.
func (a Auth) Empty() bool { return a.Scheme == "" }

// ParseAuth parses an Authorization/Proxy-Authorization header value.
// "Basic" payloads are base64-decoded into User/Password; any other scheme
// is parsed as a comma-separated list of k=v or k="v" parameters.
func ParseAuth(raw string) Auth {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Auth{}
	}
	scheme, payload := splitSchemeToken(raw)
	if scheme == "" {
		return Auth{}
	}
	a := Auth{Scheme: scheme, Raw: raw, Parameters: omap.New(true)}

	if strings.EqualFold(scheme, "Basic") {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err == nil {
			if colon := strings.IndexByte(string(decoded), ':'); colon >= 0 {
				a.User = string(decoded[:colon])
				a.Password = string(decoded[colon+1:])
			}
		}
		return a
	}

	for _, p := range parseAuthParams(payload) {
		a.Parameters.Add(p.Key, p.Value)
		if strings.EqualFold(p.Key, "realm") {
			a.Realm = p.Value
		}
	}
	return a
}

// splitSchemeToken splits "Scheme rest" on the first run of whitespace.
func splitSchemeToken(s string) (scheme, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// parseAuthParams parses a comma-separated list of k=v or k="v" pairs,
// honoring quoted commas.
func parseAuthParams(s string) []omap.Pair {
	var pairs []omap.Pair
	for _, piece := range splitUnquoted(s, ',') {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		eq := strings.IndexByte(piece, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(piece[:eq])
		value := strings.TrimSpace(piece[eq+1:])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = unescapeQuoted(value[1 : len(value)-1])
		}
		pairs = append(pairs, omap.Pair{Key: key, Value: value})
	}
	return pairs
}

// splitUnquoted splits s on sep, treating double-quoted spans as atomic.
func splitUnquoted(s string, sep byte) []string {
	var parts []string
	start := 0
	inQuotes := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inQuotes:
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// AuthChallenge is one "scheme params" group of a WWW-Authenticate or
// Proxy-Authenticate header.
type AuthChallenge struct {
	Scheme     string
	Realm      string
	Parameters *omap.Map
}

// ParseAuthChallenges parses a WWW-Authenticate/Proxy-Authenticate header,
// which may carry one or more "scheme k=v, k=v" groups. Groups are
// separated by commas that are not inside a quoted value and that are
// followed by a bare scheme token (a word with no "=").
func ParseAuthChallenges(raw string) []AuthChallenge {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	groupStarts := splitChallengeGroups(raw)
	challenges := make([]AuthChallenge, 0, len(groupStarts))
	for _, g := range groupStarts {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		scheme, payload := splitSchemeToken(g)
		c := AuthChallenge{Scheme: scheme, Parameters: omap.New(true)}
		for _, p := range parseAuthParams(payload) {
			c.Parameters.Add(p.Key, p.Value)
			if strings.EqualFold(p.Key, "realm") {
				c.Realm = p.Value
			}
		}
		challenges = append(challenges, c)
	}
	return challenges
}

// splitChallengeGroups splits on top-level commas, then re-merges any
// comma-separated piece that is itself a "k=v" continuation of the previous
// group (i.e. it does not start a new "scheme token" followed by a
// parameter list).
func splitChallengeGroups(raw string) []string {
	pieces := splitUnquoted(raw, ',')
	var groups []string
	for _, piece := range pieces {
		trimmed := strings.TrimSpace(piece)
		if looksLikeNewScheme(trimmed) || len(groups) == 0 {
			groups = append(groups, piece)
		} else {
			groups[len(groups)-1] += "," + piece
		}
	}
	return groups
}

// looksLikeNewScheme reports whether s begins with a bare token (no "=")
// followed by whitespace, which is how a new "scheme params" group starts.
func looksLikeNewScheme(s string) bool {
	sp := strings.IndexAny(s, " \t")
	if sp < 0 {
		return !strings.Contains(s, "=")
	}
	token := s[:sp]
	return !strings.Contains(token, "=") && !strings.Contains(token, "\"")
}
