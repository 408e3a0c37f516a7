// Package matcher implements nearest-identity matching of a query embedding
// against a fixed registry snapshot. Matching is a pure function: no side
// effects, no mutation of inputs, deterministic for a given snapshot order.
package matcher

import (
	"fmt"
	"math"

	"github.com/turmalabs/presenca/internal/domain"
)

// DefaultThreshold is the maximum L2 distance for a candidate to be accepted
// as the same identity. Comes from the reference deployment; there is no
// documented calibration behind it, so treat it as configuration.
const DefaultThreshold = 0.6

// BestMatch returns the nearest identity to query under the threshold.
// Acceptance is strict: a candidate at exactly the threshold is rejected.
// A tie at the minimum distance resolves to the candidate that appears first
// in snapshot order. An empty snapshot yields an unmatched result without
// computing any distance.
func BestMatch(query []float64, snapshot []domain.Identity, threshold float64) domain.MatchResult {
	if len(snapshot) == 0 {
		return domain.MatchResult{}
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	best := math.Inf(1)
	bestID := ""
	for _, candidate := range snapshot {
		d := EuclideanDistance(query, candidate.Embedding)
		if d < best {
			best = d
			bestID = candidate.ExternalID
		}
	}

	if best >= threshold {
		return domain.MatchResult{}
	}

	return domain.MatchResult{
		ExternalID: bestID,
		Distance:   best,
		Matched:    true,
	}
}

// EuclideanDistance computes the L2 distance between two embeddings. Lower
// distance means more similar faces. Embeddings of different dimensionality
// are never comparable; that is a programming error, so it panics rather
// than producing a silently wrong distance.
func EuclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("matcher: embedding dimensionality mismatch: %d != %d", len(a), len(b)))
	}

	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
