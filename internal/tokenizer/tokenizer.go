// Package tokenizer normalizes post text into index terms. It strips
// mentions, hashtags, and URLs, lower-cases, splits on non-letter
// boundaries, removes stop-words, and stems with the Snowball English
// stemmer. The same pipeline runs over documents at build time and over
// queries at search time, so terms line up on both sides.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
)

var (
	mentionPattern = regexp.MustCompile(`[@#]\w+`)
	urlPattern     = regexp.MustCompile(`(https?://|www\.)\S+`)
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "she": {},
	"we": {}, "you": {}, "your": {}, "my": {}, "me": {}, "i": {},
}

// Normalize turns raw post or query text into a sequence of index terms.
// Deterministic: the same text always yields the same terms in the same
// order.
func Normalize(text string) []string {
	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)

	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := snowballeng.Stem(word, false)
		if stemmed == "" {
			continue
		}
		terms = append(terms, stemmed)
	}
	return terms
}

// IsStopWord reports whether the word is filtered before stemming.
func IsStopWord(word string) bool {
	_, ok := stopWords[strings.ToLower(word)]
	return ok
}
