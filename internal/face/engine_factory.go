package face

import (
	"fmt"

	"github.com/turmalabs/presenca/internal/config"
	"github.com/turmalabs/presenca/internal/engine"
	"github.com/turmalabs/presenca/internal/engine/deepface"
	"github.com/turmalabs/presenca/internal/engine/mock"
)

// EngineType defines supported face engine types
type EngineType string

const (
	// EngineTypeDeepFace is the DeepFace HTTP engine (default)
	EngineTypeDeepFace EngineType = "deepface"
	// EngineTypeMock is the deterministic in-process engine (dev/test only)
	EngineTypeMock EngineType = "mock"
)

// NewFaceEngine creates a FaceEngine instance based on configuration
//
// Environment variables:
//   - ENGINE_TYPE: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - ENGINE_MODEL: embedding model name (default: "ArcFace")
//   - ENGINE_DETECTOR: detector backend (default: "retinaface")
func NewFaceEngine(cfg *config.Config) (engine.FaceEngine, error) {
	engineType := EngineType(cfg.EngineType)

	switch engineType {
	case EngineTypeDeepFace, "":
		return createDeepFaceEngine(cfg), nil

	case EngineTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown engine type: %s (supported: %s, %s)",
			cfg.EngineType, EngineTypeDeepFace, EngineTypeMock)
	}
}

func createDeepFaceEngine(cfg *config.Config) engine.FaceEngine {
	deepfaceConfig := deepface.Config{
		BaseURL:  cfg.DeepFaceURL,
		Timeout:  cfg.EngineTO,
		Model:    cfg.EngineModel,
		Detector: cfg.Detector,
	}

	if deepfaceConfig.BaseURL == "" {
		deepfaceConfig.BaseURL = deepface.DefaultConfig().BaseURL
	}
	if deepfaceConfig.Model == "" {
		deepfaceConfig.Model = deepface.DefaultConfig().Model
	}
	if deepfaceConfig.Detector == "" {
		deepfaceConfig.Detector = deepface.DefaultConfig().Detector
	}

	return deepface.New(deepfaceConfig)
}
