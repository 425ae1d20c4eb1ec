// Package normalize canonicalizes document and rule names so that name
// comparison is insensitive to case, accents and punctuation.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// separators collapse to a single space before any other cleanup
const separators = "-_./\\"

// Name returns the canonical comparison key for s.
// Accents are stripped, letters lower-cased, separators turned into spaces,
// every other non-alphanumeric rune dropped and whitespace collapsed.
// Normalizing an already normalized string returns it unchanged.
func Name(s string) string {
	if s == "" {
		return ""
	}

	folded := stripMarks(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case strings.ContainsRune(separators, r), unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Contains reports whether either normalized key contains the other.
// Empty keys never match.
func Contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// stripMarks decomposes s and removes combining marks ("Cartão" -> "Cartao").
// The transformer is built per call because transform chains are not safe
// for concurrent use.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
