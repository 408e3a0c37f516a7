// Package engine defines the boundary to the external face model. The model
// is opaque: it consumes an on-disk JPEG artifact and answers with face
// regions or a fixed-length embedding vector. Everything else about it is an
// implementation detail of the concrete engine.
package engine

import (
	"context"
	"errors"
)

// ErrTransient marks engine failures that are worth retrying (network
// hiccups, 5xx responses). Implementations wrap such errors with it so the
// detector retry wrapper can tell them apart from hard failures.
var ErrTransient = errors.New("transient engine failure")

// IsTransient reports whether err is a retryable engine failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// FaceBox is a detected face region in pixel coordinates of the image the
// engine was given. Order of boxes follows the engine's output and carries no
// spatial meaning.
type FaceBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FaceEngine is the opaque detection + embedding capability.
type FaceEngine interface {
	// ExtractFaces detects faces in the image at imagePath. Zero results is
	// a valid, non-error outcome.
	ExtractFaces(ctx context.Context, imagePath string) ([]FaceBox, error)

	// Represent generates the embedding vector for the (single-face) image
	// at imagePath. The vector is non-empty and of fixed dimensionality.
	Represent(ctx context.Context, imagePath string) ([]float64, error)
}
