// Package keyword provides the lexical normalization shared by row indexing, query
// filtering, and room-type matching.
package keyword

import (
	"regexp"
	"strings"
)

var tokenRegex = regexp.MustCompile(`[a-z0-9]+`)

// stopwords are dropped from query tokens only; row text keeps every token.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "at": {}, "be": {}, "can": {}, "do": {},
	"for": {}, "have": {}, "i": {}, "in": {}, "is": {}, "it": {}, "me": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "please": {}, "the": {}, "to": {}, "us": {}, "we": {},
	"with": {}, "you": {}, "your": {},
}

// Tokenize lowercases text and returns its alphanumeric runs in order.
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// QueryTokens returns the distinct non-stopword tokens of a query.
func QueryTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		if IsStopword(t) {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// IsStopword reports whether token is in the fixed stopword list.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// Normalize joins the tokens of text with single spaces, so "Queen Suite" and
// "queen-suite" compare equal.
func Normalize(text string) string {
	return strings.Join(Tokenize(text), " ")
}

// Intersects reports whether any token of a is present in b.
func Intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for t := range a {
		if _, ok := b[t]; ok {
			return true
		}
	}
	return false
}
