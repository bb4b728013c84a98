package service

import "strings"

// stopwords excluded from topical-overlap computations.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"it": true, "its": true, "this": true, "that": true, "these": true,
	"those": true, "there": true, "their": true, "they": true, "we": true,
	"you": true, "i": true, "he": true, "she": true, "his": true, "her": true,
	"what": true, "which": true, "who": true, "how": true, "why": true,
	"when": true, "where": true, "do": true, "does": true, "did": true,
	"has": true, "have": true, "had": true, "will": true, "would": true,
	"can": true, "could": true, "should": true, "may": true, "might": true,
	"not": true, "no": true, "so": true, "if": true, "than": true, "then": true,
	"about": true, "into": true, "over": true, "under": true, "between": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '\'':
			return false
		}
		return true
	})
	return fields
}

// contentWords returns the deduplicated non-stopword tokens of a text.
func contentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, tok := range tokenize(text) {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		words[tok] = true
	}
	return words
}

// jaccard computes set overlap between two word sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if b[w] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
