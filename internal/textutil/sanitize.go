package textutil

import "strings"

// SanitizeFileName makes a string usable as a single path segment. Path
// separators and drive punctuation become dashes so adjacent words stay
// distinguishable; shell-hostile characters are dropped outright.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.TrimSpace(name) {
		switch r {
		case '/', '\\', ':', '*':
			b.WriteByte('-')
		case '?', '"', '<', '>', '|':
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
