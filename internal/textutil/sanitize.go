package textutil

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxIDLength = 128

// ValidateID checks that id can be used as a single path component: ASCII
// letters, digits, dot, dash and underscore, not "." or "..".
func ValidateID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id is required", kind)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%s id exceeds %d characters", kind, maxIDLength)
	}
	if id == "." || id == ".." {
		return fmt.Errorf("%s id %q is reserved", kind, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("%s id %q contains %q", kind, id, r)
		}
	}
	return nil
}

// SanitizeToken converts a string to a lowercase identifier that passes
// ValidateID. Returns "unknown" for input with no usable characters.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	if len(out) > maxIDLength {
		out = out[:maxIDLength]
	}
	return out
}

// Preview collapses whitespace and truncates text to at most limit runes,
// appending an ellipsis when cut.
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimRight(string(runes[:limit]), " ")
	return cut + "…"
}
