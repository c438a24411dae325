package phrases

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Scores go through the fuzzywuzzy port with non-ASCII runes dropped and
// punctuation cleansed to spaces before tokenizing.
const (
	asciiOnly = true
	cleanse   = true
)

// Ratio scores two strings 0-100 by indel distance:
// round(100 * (len(a)+len(b)-dist) / (len(a)+len(b))). Empty input scores 0.
func Ratio(a, b string) int {
	return fuzzy.Ratio(a, b)
}

// TokenSortRatio compares the strings after sorting their tokens, so word
// order does not matter.
func TokenSortRatio(a, b string) int {
	return fuzzy.TokenSortRatio(a, b, asciiOnly, cleanse)
}

// TokenSetRatio compares the shared tokens against each side's shared plus
// remaining tokens and returns the best of the three pairings. A string whose
// tokens are a subset of the other's scores 100.
func TokenSetRatio(a, b string) int {
	return fuzzy.TokenSetRatio(a, b, asciiOnly, cleanse)
}
