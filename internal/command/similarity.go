package command

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Similarity returns a normalized edit-distance similarity between a and b
// in [0, 1]: 1 for equal strings, 0 for a non-empty string against an empty
// one. The score is (maxLen − levenshtein(a, b)) / maxLen with unit costs
// for substitution, insertion, and deletion, so a single-character typo in a
// ten-character phrase scores 0.9.
//
// Similarity is symmetric. Two empty strings are defined as identical (1.0).
func Similarity(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	d := matchr.Levenshtein(a, b)
	return float64(maxLen-d) / float64(maxLen)
}
