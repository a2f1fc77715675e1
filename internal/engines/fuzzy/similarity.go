// internal/engines/fuzzy/similarity.go
package fuzzy

import (
	"strings"
	"unicode/utf8"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
)

func labelKey(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "_", " "))
}

// labelSimilarity is 1 minus the normalized edit distance. When one label is a fuzzy
// subsequence of the other ("wund" in "wound care") only half the distance counts.
func labelSimilarity(a, b string) float64 {
	a, b = labelKey(a), labelKey(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))

	if d := fuzzysearch.RankMatchNormalizedFold(a, b); d >= 0 {
		return 1 - 0.5*float64(d)/float64(longest)
	}
	if d := fuzzysearch.RankMatchNormalizedFold(b, a); d >= 0 {
		return 1 - 0.5*float64(d)/float64(longest)
	}
	return max(0, 1-float64(fuzzysearch.LevenshteinDistance(a, b))/float64(longest))
}

// serviceSimilarity averages, over the requested labels, the best similarity against
// any offered label. Similarities under threshold count as 0.
func serviceSimilarity(requested, offered []string, threshold float64) float64 {
	if len(requested) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range requested {
		best := 0.0
		for _, o := range offered {
			if s := labelSimilarity(r, o); s > best {
				best = s
			}
		}
		if best >= threshold {
			total += best
		}
	}
	return total / float64(len(requested))
}

// jaccard compares two tag sets case-insensitively.
func jaccard(a, b []string) float64 {
	left := tagSet(a)
	right := tagSet(b)
	if len(left) == 0 && len(right) == 0 {
		return 0
	}

	inter := 0
	for k := range left {
		if right[k] {
			inter++
		}
	}
	return float64(inter) / float64(len(left)+len(right)-inter)
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		if k := labelKey(t); k != "" {
			set[k] = true
		}
	}
	return set
}
