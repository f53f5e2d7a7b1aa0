package utils

import (
	"strings"
	"unicode"
)

// collapse replaces every non-alphanumeric rune with '_', squeezes runs of
// '_' down to one, and trims leading/trailing '_'.
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevUnderscore := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
			prevUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// Slugify normalizes a free-form query into a stable cache key:
// lowercase, non-alphanumerics collapsed to single underscores.
// An empty result becomes "unknown".
func Slugify(input string) string {
	slug := collapse(strings.ToLower(strings.TrimSpace(input)))
	if slug == "" {
		return "unknown"
	}
	return slug
}

// SafeFileName sanitizes a station name for use as an artifact file name.
// Case is preserved. An empty result becomes "station".
func SafeFileName(input string) string {
	name := collapse(strings.TrimSpace(input))
	if name == "" {
		return "station"
	}
	return name
}
