// Package strings provides string normalisation shared by matching rules.
package strings

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName reduces a personal name to a comparison key: surrounding
// whitespace trimmed, diacritics stripped, every non-letter rune removed and
// the rest lower-cased.
//
// Example:
//
//	NormalizeName("  Seán O'Brien ") == NormalizeName("SEAN OBRIEN") // "seanobrien"
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	// transform chains carry buffers and are not safe for concurrent use.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// NamesEqual compares two names by their normalised keys.
func NamesEqual(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// NormalizeEmail trims and lower-cases an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
