// Package sanitize implements the two pure, total text transforms every
// agent applies to outbound and inbound turn text: surrogate stripping and
// role-marker scrubbing.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText removes unpaired UTF-16 surrogates and otherwise invalid
// runes from s, returning a clean UTF-8 string. Agent text routinely
// originates from file contents of unknown provenance; the provider wire
// APIs reject payloads containing lone surrogates.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if r >= 0xD800 && r <= 0xDFFF {
			// Lone surrogate half; Go's range over string never yields a
			// valid surrogate pair as a single rune, so any occurrence here
			// is inherently unpaired.
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// roleMarkers are the legacy turn-boundary markers a provider may echo back;
// left unscrubbed they would be re-saved into history and re-injected as
// context, creating a feedback loop.
var roleMarkers = []string{"human:", "assistant:", "user:", "system:"}

// StripRoleMarkers iteratively removes role markers (case-insensitive) and
// surrounding whitespace from the start and end of s until none remain.
func StripRoleMarkers(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		stripped := trimPrefixMarker(trimmed)
		stripped = trimSuffixMarker(stripped)
		stripped = strings.TrimSpace(stripped)
		if stripped == s {
			return stripped
		}
		s = stripped
	}
}

func trimPrefixMarker(s string) string {
	lower := strings.ToLower(s)
	for _, m := range roleMarkers {
		if strings.HasPrefix(lower, m) {
			return s[len(m):]
		}
	}
	return s
}

func trimSuffixMarker(s string) string {
	lower := strings.ToLower(s)
	for _, m := range roleMarkers {
		if strings.HasSuffix(lower, m) {
			return s[:len(s)-len(m)]
		}
	}
	return s
}
