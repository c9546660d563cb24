// Package nlp turns free-text property queries into slots and intents.
//
// Everything here is deterministic: closed vocabularies, regular expressions
// and weighted keyword tables. No input ever produces an error; anything the
// extractors cannot resolve is simply left absent.
package nlp

import "strings"

// Normalize lowercases s, collapses whitespace runs to one space and trims the ends
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// tokens splits normalized text into letter/digit runs
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
