package product

import (
	"strings"
	"unicode"
)

// Slugify lowercases name and joins its alphanumeric runs with single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// resolveSlug prefers an explicit slug and falls back to the name.
func resolveSlug(explicit *string, name string) string {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		return Slugify(*explicit)
	}
	return Slugify(name)
}
