// Package similarity holds the vector math shared by the in-process indexes.
package similarity

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b.
// Zero vectors and length mismatches score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Scored pairs an item index with its score.
type Scored struct {
	Index int
	Score float64
}

// TopK returns the k best scores, highest first.
// Ties keep input order so results are deterministic.
func TopK(scores []float64, k int) []Scored {
	ranked := make([]Scored, len(scores))
	for i, s := range scores {
		ranked[i] = Scored{Index: i, Score: s}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}
