package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turmalabs/presenca/internal/api"
	"github.com/turmalabs/presenca/internal/config"
	"github.com/turmalabs/presenca/internal/database"
	"github.com/turmalabs/presenca/internal/detector"
	"github.com/turmalabs/presenca/internal/face"
	"github.com/turmalabs/presenca/internal/fetch"
	"github.com/turmalabs/presenca/internal/recognition"
	"github.com/turmalabs/presenca/internal/registry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Presenca API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("engine", cfg.EngineType),
	)

	// Database pool
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Face engine
	faceEngine, err := face.NewFaceEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to create face engine: %w", err)
	}

	// Recognition pipeline
	store := registry.NewPostgresStore(pool)
	det := detector.New(faceEngine, logger, cfg.DetectRetries, cfg.DetectBackoff)
	recognizer := recognition.NewService(store, det, faceEngine, logger).
		WithThreshold(cfg.MatchThreshold).
		WithWorkers(cfg.FaceWorkers).
		WithMaxDimension(cfg.MaxDimension)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Recognizer: recognizer,
		Store:      store,
		Downloader: fetch.NewClient(cfg.DownloadTimeout),
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
