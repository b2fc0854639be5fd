package strx

import "strings"

// Redacted replaces secret values in logs and published config.
const Redacted = "<redacted>"

// Coalesce returns the first non-empty value, or "".
func Coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Redact masks a non-empty secret; an empty one stays empty so "unset"
// remains visible.
func Redact(s string) string {
	if s == "" {
		return ""
	}
	return Redacted
}

// Blank reports whether s is empty or only whitespace.
func Blank(s string) bool { return strings.TrimSpace(s) == "" }
