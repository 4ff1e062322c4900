package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MostSimilar finds the candidate closest to `target` by Jaro-Winkler similarity
// of their normalized names. An exact match after normalization always wins.
func MostSimilar(target string, candidates []string) (string, float64) {
	normalized := NormalizeName(target)

	var mostSimilarity float64
	var mostSimilar string
	for _, candidate := range candidates {
		if NormalizeName(candidate) == normalized {
			return candidate, 1
		}
		similarity := matchr.JaroWinkler(normalized, NormalizeName(candidate), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			mostSimilar = candidate
		}
	}
	return mostSimilar, mostSimilarity
}
