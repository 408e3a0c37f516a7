package deepface

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/turmalabs/presenca/internal/engine"
)

// Engine implements engine.FaceEngine using the DeepFace API
type Engine struct {
	client *Client
}

// New creates a new DeepFace engine
func New(config Config) *Engine {
	return &Engine{
		client: NewClient(config),
	}
}

// ExtractFaces detects faces in the image artifact at imagePath
func (e *Engine) ExtractFaces(ctx context.Context, imagePath string) ([]engine.FaceBox, error) {
	imageBase64, err := encodeArtifact(imagePath)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.ExtractFaces(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}

	boxes := make([]engine.FaceBox, 0, len(resp.Results))
	for _, result := range resp.Results {
		boxes = append(boxes, engine.FaceBox{
			X:      result.FacialArea.X,
			Y:      result.FacialArea.Y,
			Width:  result.FacialArea.W,
			Height: result.FacialArea.H,
		})
	}

	return boxes, nil
}

// Represent generates the embedding for the face artifact at imagePath
func (e *Engine) Represent(ctx context.Context, imagePath string) ([]float64, error) {
	imageBase64, err := encodeArtifact(imagePath)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("represent: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, ErrNoFaceInResponse
	}

	embedding := resp.Results[0].Embedding
	if len(embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	return embedding, nil
}

// encodeArtifact reads the on-disk artifact and base64-encodes it for the
// JSON transport the API expects.
func encodeArtifact(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Ensure Engine implements engine.FaceEngine
var _ engine.FaceEngine = (*Engine)(nil)
