// Package similarity builds and persists the pairwise product similarity
// matrix together with its product-id row mapping.
package similarity

import "math"

// Cosine returns the cosine similarity of two vectors: dot(a,b)/(|a|*|b|),
// in [-1, 1]. Mismatched lengths or a zero vector yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
