// Package mock provides a deterministic in-process engine for tests and
// local development without a DeepFace deployment.
package mock

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/turmalabs/presenca/internal/engine"
)

const embeddingDimension = 512

// Engine implementa engine.FaceEngine para testes e desenvolvimento
type Engine struct{}

// New cria uma nova instância do mock
func New() *Engine {
	return &Engine{}
}

// ExtractFaces pretends every readable artifact contains exactly one
// centered face.
func (e *Engine) ExtractFaces(ctx context.Context, imagePath string) ([]engine.FaceBox, error) {
	if _, err := os.Stat(imagePath); err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	return []engine.FaceBox{
		{X: 10, Y: 10, Width: 100, Height: 100},
	}, nil
}

// Represent generates a deterministic embedding from the artifact's hash, so
// identical crops always produce identical vectors.
func (e *Engine) Represent(ctx context.Context, imagePath string) ([]float64, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	return generateEmbedding(data), nil
}

func generateEmbedding(data []byte) []float64 {
	hash := sha256.Sum256(data)
	embedding := make([]float64, embeddingDimension)
	for i := range embedding {
		b := hash[i%len(hash)]
		embedding[i] = float64(b)/255.0 - 0.5
	}
	return embedding
}

// Ensure Engine implements engine.FaceEngine
var _ engine.FaceEngine = (*Engine)(nil)
