package domain

import (
	"math"
)

// Admission is the outcome of the annealing gate for one candidate chunk.
// A rejection carries the nearest existing chunk as evidence.
type Admission struct {
	Admitted bool         `json:"admitted"`
	Nearest  *ScoredChunk `json:"nearest,omitempty"`
}

// Admit decides whether a candidate vector is novel enough to enter the
// index, given the nearest existing chunk (nil when the index is empty) and
// the annealing threshold. The comparison is strictly greater-than: a
// candidate whose best similarity equals the threshold is still admitted.
//
// Admit is a pure function over its inputs so the gate can be exercised
// without a live index; the store is responsible for making the
// check-then-insert around it atomic.
func Admit(nearest *ScoredChunk, threshold float32) Admission {
	if nearest != nil && nearest.Similarity > threshold {
		return Admission{Admitted: false, Nearest: nearest}
	}
	return Admission{Admitted: true, Nearest: nearest}
}

// CosineSimilarity returns the normalized dot product of a and b in [-1, 1].
// Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
