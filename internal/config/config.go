package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Face engine
	EngineType  string        `envconfig:"ENGINE_TYPE" default:"deepface"`
	DeepFaceURL string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	EngineModel string        `envconfig:"ENGINE_MODEL" default:"ArcFace"`
	Detector    string        `envconfig:"ENGINE_DETECTOR" default:"retinaface"`
	EngineTO    time.Duration `envconfig:"ENGINE_TIMEOUT" default:"30s"`

	// Recognition pipeline
	// Threshold and retry count come from the reference deployment; they are
	// configuration, not derived values.
	MatchThreshold  float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	DetectRetries   int           `envconfig:"DETECT_RETRIES" default:"3"`
	DetectBackoff   time.Duration `envconfig:"DETECT_BACKOFF" default:"1s"`
	FaceWorkers     int           `envconfig:"FACE_WORKERS" default:"3"`
	MaxDimension    int           `envconfig:"MAX_IMAGE_DIMENSION" default:"1200"`
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"10s"`
}

func Load() (*Config, error) {
	// Best-effort .env load for local development; env vars always win.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
