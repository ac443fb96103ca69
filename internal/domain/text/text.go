// Package text holds the tokenization policy shared by enrichment, the lexical
// index and the component matcher.
package text

import (
	"strings"
	"unicode"
)

// Tokenize splits s into lowercase tokens of Unicode letters and digits.
// Every other rune (hyphen, slash, parentheses, colon, underscore, space) separates
// tokens, so "Lab-4/CSA" yields lab, 4, csa. Empty input yields an empty slice.
func Tokenize(s string) []string {
	tokens := make([]string, 0, len(s)/4)
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// Normalize returns the tokens of s joined by single spaces.
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}
