// Package recognition coordinates the full matching pipeline: normalize the
// photo, detect faces, embed each face and match it against a snapshot of
// the identity registry.
package recognition

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"

	"github.com/turmalabs/presenca/internal/detector"
	"github.com/turmalabs/presenca/internal/domain"
	"github.com/turmalabs/presenca/internal/engine"
	"github.com/turmalabs/presenca/internal/imaging"
	"github.com/turmalabs/presenca/internal/matcher"
	"github.com/turmalabs/presenca/internal/registry"
)

const (
	// DefaultWorkers bounds concurrent per-face embedding work within one
	// recognition call.
	DefaultWorkers = 3

	artifactPrefix = "presenca"
)

type Service struct {
	store     registry.Store
	detector  *detector.Detector
	engine    engine.FaceEngine
	logger    *slog.Logger
	threshold float64
	workers   int
	maxDim    int
}

func NewService(store registry.Store, det *detector.Detector, eng engine.FaceEngine, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		detector:  det,
		engine:    eng,
		logger:    logger,
		threshold: matcher.DefaultThreshold,
		workers:   DefaultWorkers,
		maxDim:    imaging.DefaultMaxDimension,
	}
}

func (s *Service) WithThreshold(threshold float64) *Service {
	s.threshold = threshold
	return s
}

func (s *Service) WithWorkers(workers int) *Service {
	if workers > 0 {
		s.workers = workers
	}
	return s
}

func (s *Service) WithMaxDimension(maxDim int) *Service {
	if maxDim > 0 {
		s.maxDim = maxDim
	}
	return s
}

// GetFaceEmbedding extracts the embedding of the single face in the image.
// This is the enrollment path and it is strict: zero faces or more than one
// face abort with an explicit reason.
func (s *Service) GetFaceEmbedding(ctx context.Context, imageBytes []byte) ([]float64, error) {
	norm, err := imaging.Normalize(imageBytes, s.maxDim)
	if err != nil {
		return nil, err
	}

	art, err := writeArtifact(s.logger, artifactPrefix, norm)
	if err != nil {
		return nil, fmt.Errorf("materialize image: %w", err)
	}
	defer art.Close()

	boxes, err := s.detector.Detect(ctx, art.Path())
	if err != nil {
		return nil, err
	}

	if len(boxes) == 0 {
		return nil, domain.ErrNoFaceDetected
	}
	if len(boxes) > 1 {
		return nil, domain.ErrMultipleFaces
	}

	return s.embedFace(ctx, norm, boxes[0])
}

// RecognizeFaces identifies every enrolled person visible in the image.
// Matching runs against a registry snapshot fetched once at the start of the
// call; per-face failures degrade that face to unmatched instead of failing
// the request.
func (s *Service) RecognizeFaces(ctx context.Context, imageBytes []byte) (*domain.RecognitionResult, error) {
	norm, err := imaging.Normalize(imageBytes, s.maxDim)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.ListAllEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	art, err := writeArtifact(s.logger, artifactPrefix, norm)
	if err != nil {
		return nil, fmt.Errorf("materialize image: %w", err)
	}
	defer art.Close()

	boxes, err := s.detector.Detect(ctx, art.Path())
	if err != nil {
		return nil, err
	}

	if len(boxes) == 0 {
		return &domain.RecognitionResult{ExternalIDs: []string{}}, nil
	}

	s.logger.Info("faces detected", slog.Int("count", len(boxes)))

	// Nothing enrolled: skip embedding work entirely.
	if len(snapshot) == 0 {
		s.logger.Warn("no identities enrolled, skipping match")
		return &domain.RecognitionResult{
			ExternalIDs:    []string{},
			FacesProcessed: len(boxes),
		}, nil
	}

	matches := s.matchFaces(ctx, norm, boxes, snapshot)

	return &domain.RecognitionResult{
		ExternalIDs:    distinctIDs(matches),
		FacesProcessed: len(boxes),
	}, nil
}

// Enroll registers a new identity from a single-face image.
func (s *Service) Enroll(ctx context.Context, externalID string, imageBytes []byte) (*domain.Identity, error) {
	embedding, err := s.GetFaceEmbedding(ctx, imageBytes)
	if err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		ExternalID: externalID,
		Embedding:  embedding,
	}

	if err := s.store.Create(ctx, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// matchFaces runs per-face embedding and matching on a bounded worker pool.
// One result slot per face; a failed face keeps its zero (unmatched) value.
func (s *Service) matchFaces(ctx context.Context, norm *imaging.Normalized, boxes []engine.FaceBox, snapshot []domain.Identity) []domain.MatchResult {
	results := make([]domain.MatchResult, len(boxes))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)

	for i, box := range boxes {
		wg.Add(1)
		go func(idx int, box engine.FaceBox) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			embedding, err := s.embedFace(ctx, norm, box)
			if err != nil {
				s.logger.Warn("face processing failed",
					slog.Int("face_index", idx),
					slog.Any("error", err),
				)
				return
			}

			results[idx] = matcher.BestMatch(embedding, snapshot, s.threshold)
		}(i, box)
	}

	wg.Wait()
	return results
}

// embedFace crops one face region, materializes it for the engine and
// returns its embedding.
func (s *Service) embedFace(ctx context.Context, norm *imaging.Normalized, box engine.FaceBox) ([]float64, error) {
	crop, err := norm.Crop(image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height))
	if err != nil {
		return nil, domain.ErrEmbeddingFailed.WithError(fmt.Errorf("crop face: %w", err))
	}

	faceArt, err := writeArtifact(s.logger, artifactPrefix+"_face", crop)
	if err != nil {
		return nil, domain.ErrEmbeddingFailed.WithError(err)
	}
	defer faceArt.Close()

	embedding, err := s.engine.Represent(ctx, faceArt.Path())
	if err != nil {
		return nil, domain.ErrEmbeddingFailed.WithError(err)
	}
	if len(embedding) == 0 {
		return nil, domain.ErrEmbeddingFailed
	}

	return embedding, nil
}

// distinctIDs collapses per-face matches into a sorted set of identity ids.
func distinctIDs(matches []domain.MatchResult) []string {
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if !m.Matched {
			continue
		}
		if _, ok := seen[m.ExternalID]; ok {
			continue
		}
		seen[m.ExternalID] = struct{}{}
		ids = append(ids, m.ExternalID)
	}
	sort.Strings(ids)
	return ids
}
