package detect

import (
	"strings"
	"unicode"
)

// stopWords are tokens too common to discriminate between products. The CJK
// entries match the catalogs this system patrols; the English ones cover
// mixed-language listing titles.
var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "和": {}, "是": {}, "在": {},
	"有": {}, "与": {}, "及": {}, "等": {}, "为": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {}, "and": {},
}

// ExtractKeywords tokenizes text for catalog keyword matching: punctuation
// becomes whitespace, tokens of length <= 1 and stop words are discarded.
func ExtractKeywords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)

	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) <= 1 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}
