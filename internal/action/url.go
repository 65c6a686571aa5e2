package action

import "strings"

// NormalizeURL turns a spoken site name into a loadable absolute URL.
// Spaces are removed ("new york times" → "newyorktimes"), ".com" is appended
// when the name carries no dot, and the scheme defaults to https when none
// is given. Already-complete inputs like "example.org" or
// "http://localhost:8000" pass through with at most a scheme added.
func NormalizeURL(spoken string) string {
	s := strings.ReplaceAll(strings.TrimSpace(spoken), " ", "")
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".com"
	}
	return "https://" + s
}
