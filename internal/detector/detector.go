// Package detector bounds the flakiness of the external detection capability
// behind a fixed retry budget. It does not interpret detection failures
// beyond the transient/hard split the engine reports.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turmalabs/presenca/internal/domain"
	"github.com/turmalabs/presenca/internal/engine"
)

const (
	// DefaultMaxRetries and DefaultBackoff come from the reference
	// deployment; override via config only.
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second
)

// Detector wraps a FaceEngine with a bounded retry loop.
type Detector struct {
	engine     engine.FaceEngine
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
}

// New creates a Detector. maxRetries <= 0 and backoff <= 0 fall back to the
// defaults.
func New(eng engine.FaceEngine, logger *slog.Logger, maxRetries int, backoff time.Duration) *Detector {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Detector{
		engine:     eng,
		logger:     logger,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Detect runs face detection on the image artifact at imagePath with up to
// maxRetries attempts. Zero faces after the retry budget is exhausted is a
// valid outcome and returns an empty slice. A transient engine failure is
// retried; a hard failure, or any failure on the final attempt, surfaces as
// domain.ErrDetectionFailed.
func (d *Detector) Detect(ctx context.Context, imagePath string) ([]engine.FaceBox, error) {
	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		boxes, err := d.engine.ExtractFaces(ctx, imagePath)
		if err == nil && len(boxes) > 0 {
			return boxes, nil
		}

		last := attempt == d.maxRetries

		if err != nil {
			if last || !engine.IsTransient(err) {
				return nil, domain.ErrDetectionFailed.WithError(fmt.Errorf("attempt %d/%d: %w", attempt, d.maxRetries, err))
			}
			d.logger.Warn("face detection failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_retries", d.maxRetries),
				slog.Any("error", err),
			)
		} else {
			if last {
				break
			}
			d.logger.Warn("no faces detected, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_retries", d.maxRetries),
			)
		}

		if err := sleep(ctx, d.backoff); err != nil {
			return nil, err
		}
	}

	// Not every photo contains a detectable face.
	return []engine.FaceBox{}, nil
}

// sleep waits for the backoff interval or until the context is done.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
