// Package search builds the accent and case insensitive keys used by the
// customer search.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold lower-cases s, strips diacritics and collapses whitespace.
func Fold(s string) string {
	decomposed := norm.NFD.String(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(folder.String(b.String())), " ")
}

// Key joins the folded, non-empty parts into one searchable string.
func Key(parts ...string) string {
	folded := make([]string, 0, len(parts))
	for _, p := range parts {
		if f := Fold(p); f != "" {
			folded = append(folded, f)
		}
	}
	return strings.Join(folded, " ")
}

// HasPrefixFold reports whether s starts with prefix, ignoring case and accents.
func HasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(Fold(s), Fold(prefix))
}

// ContainsFold reports whether s contains sub, ignoring case and accents.
func ContainsFold(s, sub string) bool {
	return strings.Contains(Fold(s), Fold(sub))
}
