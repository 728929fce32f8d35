// Package inflect provides the identifier casing transforms applied at
// environment import/export boundaries. Hub identifiers are snake_case;
// environments render them natively (e.g. camelCase for JSON-Schema-like
// systems).
package inflect

import (
	"strings"
	"unicode"
)

// Underscore converts an identifier to snake_case: "maxLength" and
// "max-length" both become "max_length". Already snake_case input passes
// through unchanged.
func Underscore(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prevLower := false
	for _, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r != '_'
		}
	}
	return b.String()
}

// Camelize converts a snake_case identifier to lowerCamelCase:
// "max_length" becomes "maxLength". Dashes are treated like underscores.
func Camelize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	up := false
	for i, r := range s {
		switch {
		case r == '_' || r == '-':
			up = true
		case up:
			b.WriteRune(unicode.ToUpper(r))
			up = false
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
