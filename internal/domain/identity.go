package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity representa uma pessoa cadastrada no sistema
type Identity struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Embedding  []float64 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MatchResult is the outcome of matching one face against the registry snapshot.
// Matched is false when no candidate fell under the distance threshold; in that
// case ExternalID is empty and Distance is meaningless.
type MatchResult struct {
	ExternalID string  `json:"external_id,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Matched    bool    `json:"matched"`
}

// RecognitionResult aggregates matches for every face found in one image.
// ExternalIDs holds distinct ids sorted lexicographically, so the result is
// independent of per-face completion order.
type RecognitionResult struct {
	ExternalIDs    []string `json:"recognized_ids"`
	FacesProcessed int      `json:"faces_processed"`
}
