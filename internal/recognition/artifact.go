package recognition

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/turmalabs/presenca/internal/imaging"
)

// artifact is an on-disk JPEG the face engine consumes. Every artifact has a
// globally unique name, belongs to exactly one pipeline invocation and is
// removed when that invocation is done with it, on every exit path. Removal
// failure is logged, never escalated: cleanup must not mask the primary
// result or error.
type artifact struct {
	path   string
	logger *slog.Logger
}

// writeArtifact materializes the image under a unique name in the OS temp
// directory.
func writeArtifact(logger *slog.Logger, prefix string, img *imaging.Normalized) (*artifact, error) {
	name := fmt.Sprintf("%s_%s.jpg", prefix, uuid.New().String())
	path := filepath.Join(os.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}

	if err := img.EncodeJPEG(f); err != nil {
		_ = f.Close()
		removeArtifact(logger, path)
		return nil, fmt.Errorf("write artifact: %w", err)
	}

	if err := f.Close(); err != nil {
		removeArtifact(logger, path)
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	return &artifact{path: path, logger: logger}, nil
}

// Path returns the artifact location on disk.
func (a *artifact) Path() string {
	return a.path
}

// Close removes the artifact. Safe to call exactly once, typically deferred
// right after creation.
func (a *artifact) Close() {
	removeArtifact(a.logger, a.path)
}

func removeArtifact(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove temporary artifact",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}
}
