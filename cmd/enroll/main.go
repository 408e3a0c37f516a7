package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turmalabs/presenca/internal/config"
	"github.com/turmalabs/presenca/internal/database"
	"github.com/turmalabs/presenca/internal/detector"
	"github.com/turmalabs/presenca/internal/face"
	"github.com/turmalabs/presenca/internal/recognition"
	"github.com/turmalabs/presenca/internal/registry"
)

var (
	externalID string
	imageFile  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "enroll",
		Short: "Enroll an identity from a local image file",
		Long: "Enroll reads a single-face image, extracts its embedding through the\n" +
			"configured face engine and stores the identity in the registry.",
		RunE: runEnroll,
	}

	rootCmd.Flags().StringVar(&externalID, "id", "", "external id of the identity (required)")
	rootCmd.Flags().StringVar(&imageFile, "file", "", "path to the image file (required)")
	_ = rootCmd.MarkFlagRequired("id")
	_ = rootCmd.MarkFlagRequired("file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)

	imageBytes, err := os.ReadFile(imageFile)
	if err != nil {
		return fmt.Errorf("read image file: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	faceEngine, err := face.NewFaceEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face engine: %w", err)
	}

	store := registry.NewPostgresStore(pool)
	det := detector.New(faceEngine, logger, cfg.DetectRetries, cfg.DetectBackoff)
	recognizer := recognition.NewService(store, det, faceEngine, logger).
		WithThreshold(cfg.MatchThreshold).
		WithMaxDimension(cfg.MaxDimension)

	identity, err := recognizer.Enroll(ctx, externalID, imageBytes)
	if err != nil {
		return fmt.Errorf("enroll %s: %w", externalID, err)
	}

	logger.Info("identity enrolled",
		slog.String("id", identity.ID.String()),
		slog.String("external_id", identity.ExternalID),
		slog.Int("embedding_dim", len(identity.Embedding)),
	)

	return nil
}
