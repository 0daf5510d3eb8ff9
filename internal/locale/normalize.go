// Package locale parses the locale-specific text found in bank exports:
// dates, currency amounts, and accented header labels.
package locale

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips diacritics so that
// "Lançamento" compares equal to "lancamento".
// Transform failures fall back to plain lowercasing; header matching
// degrades rather than aborting the parse.
func Normalize(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	normalized, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return normalized
}
