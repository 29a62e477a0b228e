package clipname

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// forbiddenRunes cannot appear in file names on at least one supported
// filesystem.
const forbiddenRunes = `\/:*?"<>|`

// SanitizeFileName makes s safe to use as a single path element. The input is
// NFC normalized, control characters are dropped, forbidden characters become
// '_', whitespace runs collapse to one space, and the result is trimmed and
// cut to maxLen runes. A non-positive maxLen disables truncation. Names made
// only of dots would be path navigation and come back empty, so the result
// may be empty.
func SanitizeFileName(s string, maxLen int) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteRune(' ')
			space = false
		}
		if strings.ContainsRune(forbiddenRunes, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	if strings.Trim(cleaned, ".") == "" {
		return ""
	}
	return cleaned
}

// SanitizeOr is SanitizeFileName with a fallback for empty results.
func SanitizeOr(s string, maxLen int, fallback string) string {
	if cleaned := SanitizeFileName(s, maxLen); cleaned != "" {
		return cleaned
	}
	return fallback
}
