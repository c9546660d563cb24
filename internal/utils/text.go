package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TitleCase upper-cases the first letter of every word: "mount lavinia" -> "Mount Lavinia".
// Whitespace runs collapse to a single space.
func TitleCase(s string) string {
	// a Caser must not be shared between goroutines
	return cases.Title(language.English).String(strings.Join(strings.Fields(strings.ToLower(s)), " "))
}

// FormatLKR renders a whole-rupee amount with thousands separators: "LKR 80,000,000"
func FormatLKR(amount int64) string {
	return message.NewPrinter(language.English).Sprintf("LKR %d", amount)
}

// FormatMillions renders an amount as a short price tag: 72500000 -> "72.5M"
func FormatMillions(amount int64) string {
	p := message.NewPrinter(language.English)
	if amount < 1_000_000 {
		return p.Sprintf("%d", amount)
	}
	m := float64(amount) / 1_000_000
	s := p.Sprintf("%.1f", m)
	s = strings.TrimSuffix(s, ".0")
	return s + "M"
}

// ContainsWord reports whether phrase occurs in text on word boundaries.
// Both arguments are expected to be normalized already.
func ContainsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; start <= len(text)-len(phrase); {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if isBoundary(text, i-1) && isBoundary(text, end) {
			return true
		}
		start = i + 1
	}
	return false
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_')
}
