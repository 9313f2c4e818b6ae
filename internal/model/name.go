package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CanonicalName folds a free-text customer name into its identity key:
// surrounding whitespace trimmed, inner runs collapsed to one space, lowercase.
func CanonicalName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// DisplayName title-cases every word of a canonical name for presentation.
func DisplayName(canonical string) string {
	words := strings.Fields(canonical)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
