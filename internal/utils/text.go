package utils

import "strings"

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	if cut, truncated := TruncateRunes(s, limit); truncated {
		return cut + "..."
	}
	return s
}

// TruncateRunes keeps at most limit runes of s. The second value reports
// whether anything was cut.
func TruncateRunes(s string, limit int) (string, bool) {
	if limit < 0 {
		limit = 0
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i], true
		}
		count++
	}
	return s, false
}
