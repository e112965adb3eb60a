package http

import (
	"path"
	"strings"
)

// matches reports whether reqPath matches any of patterns. Paths are
// cleaned before comparison. A "*" segment matches any one segment and a
// trailing "*" matches any remainder, including none.
func matches(reqPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	req := segments(reqPath)
	for _, p := range patterns {
		if matchSegments(req, segments(p)) {
			return true
		}
	}
	return false
}

func segments(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(req, pattern []string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == "*" {
		pattern = pattern[:n-1]
		if len(req) < len(pattern) {
			return false
		}
		req = req[:len(pattern)]
	}
	if len(req) != len(pattern) {
		return false
	}
	for i, seg := range pattern {
		if seg != "*" && seg != req[i] {
			return false
		}
	}
	return true
}
