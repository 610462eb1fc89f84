package detect

import (
	"strings"
	"unicode"
)

// TextSimilarity is a crude, order-insensitive character-overlap metric:
// the share of a's characters that appear anywhere in b, over the longer of
// the two cleaned texts. Both sides are lower-cased and stripped of
// punctuation first. It is deliberately not an edit distance.
func TextSimilarity(a, b string) float64 {
	ca := []rune(cleanText(a))
	cb := cleanText(b)
	if len(ca) == 0 || len(cb) == 0 {
		return 0.0
	}

	maxLen := len(ca)
	if n := len([]rune(cb)); n > maxLen {
		maxLen = n
	}

	common := 0
	for _, r := range ca {
		if strings.ContainsRune(cb, r) {
			common++
		}
	}
	return float64(common) / float64(maxLen)
}

// KeywordCoverage is the share of keywords that appear as literal substrings
// of text. Zero keywords means zero coverage.
func KeywordCoverage(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0.0
	}
	hits := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// cleanText lower-cases s and drops everything that is not a word character
// or whitespace.
func cleanText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
