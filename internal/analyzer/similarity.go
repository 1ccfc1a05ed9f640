package analyzer

import (
	"math"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NameSimilarity scores two column names in [0, 1].
// Exact matches score 1, containment 0.8, otherwise the Levenshtein ratio when above 0.7.
func NameSimilarity(name1, name2 string) float64 {
	n1 := normalizeName(name1)
	n2 := normalizeName(name2)

	if n1 == n2 {
		return 1.0
	}
	if n1 == "" || n2 == "" {
		return 0
	}

	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return 0.8
	}

	r1, r2 := []rune(n1), []rune(n2)
	maxLen := math.Max(float64(len(r1)), float64(len(r2)))
	distance := levenshtein.DistanceForStrings(r1, r2, levenshtein.DefaultOptions)
	similarity := 1.0 - float64(distance)/maxLen

	if similarity > 0.7 {
		return similarity
	}
	return 0
}

// normalizeName lowercases a name and drops a Hungarian "c" prefix (cDepCode).
func normalizeName(name string) string {
	runes := []rune(name)
	if len(runes) > 1 && runes[0] == 'c' && unicode.IsUpper(runes[1]) {
		name = string(runes[1:])
	}
	return strings.ToLower(name)
}
