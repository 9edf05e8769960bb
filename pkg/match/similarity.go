package match

import "strings"

// Similarity returns the fraction of a's characters found in b, counting
// repeated characters once per occurrence, symmetrized by taking the larger
// of both directions. Empty keys have similarity 0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return max(overlap(a, b), overlap(b, a))
}

func overlap(a, b string) float64 {
	pool := make(map[rune]int)
	for _, r := range b {
		pool[r]++
	}
	found, total := 0, 0
	for _, r := range a {
		total++
		if pool[r] > 0 {
			pool[r]--
			found++
		}
	}
	return float64(found) / float64(total)
}

// KeysMatch reports whether two non-empty keys are equal or one contains the other.
func KeysMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}
