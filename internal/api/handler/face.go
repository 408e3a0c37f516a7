package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/turmalabs/presenca/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// RecognitionService interface for the recognition pipeline
type RecognitionService interface {
	GetFaceEmbedding(ctx context.Context, imageBytes []byte) ([]float64, error)
	RecognizeFaces(ctx context.Context, imageBytes []byte) (*domain.RecognitionResult, error)
	Enroll(ctx context.Context, externalID string, imageBytes []byte) (*domain.Identity, error)
}

// ImageDownloader fetches an image referenced by URL
type ImageDownloader interface {
	Image(ctx context.Context, url string) ([]byte, error)
}

// IdentityRemover deletes an enrolled identity
type IdentityRemover interface {
	Delete(ctx context.Context, externalID string) error
}

// FaceHandler handles face recognition requests
type FaceHandler struct {
	service    RecognitionService
	downloader ImageDownloader
	remover    IdentityRemover
	logger     *slog.Logger
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service RecognitionService, downloader ImageDownloader, remover IdentityRemover, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service:    service,
		downloader: downloader,
		remover:    remover,
		logger:     logger,
	}
}

// imageURLRequest is the by-reference request form
type imageURLRequest struct {
	ImageURL string `json:"image_url"`
}

// EncodeResponse response for the encode endpoint
type EncodeResponse struct {
	Status    string    `json:"status"`
	Embedding []float64 `json:"embedding"`
}

// RecognizeResponse response for the recognize endpoint
type RecognizeResponse struct {
	Status         string   `json:"status"`
	RecognizedIDs  []string `json:"recognized_ids"`
	Count          int      `json:"count"`
	FacesProcessed int      `json:"faces_processed"`
}

// EnrollResponse response for the enroll endpoint
type EnrollResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	CreatedAt  string `json:"created_at"`
}

// Encode POST /v1/faces/encode - extract the embedding of a single-face image
func (h *FaceHandler) Encode(c *fiber.Ctx) error {
	imageBytes, err := h.resolveImage(c)
	if err != nil {
		return err
	}

	embedding, err := h.service.GetFaceEmbedding(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	return c.JSON(EncodeResponse{
		Status:    "success",
		Embedding: embedding,
	})
}

// Recognize POST /v1/faces/recognize - identify enrolled people in a photo
func (h *FaceHandler) Recognize(c *fiber.Ctx) error {
	imageBytes, err := h.resolveImage(c)
	if err != nil {
		return err
	}

	result, err := h.service.RecognizeFaces(c.Context(), imageBytes)
	if err != nil {
		return err
	}

	return c.JSON(RecognizeResponse{
		Status:         "success",
		RecognizedIDs:  result.ExternalIDs,
		Count:          len(result.ExternalIDs),
		FacesProcessed: result.FacesProcessed,
	})
}

// Enroll POST /v1/identities - enroll a new identity from a single-face image
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	externalID := strings.TrimSpace(c.FormValue("external_id"))
	if externalID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("external_id is required"))
	}

	imageBytes, err := h.resolveImage(c)
	if err != nil {
		return err
	}

	identity, err := h.service.Enroll(c.Context(), externalID, imageBytes)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		ID:         identity.ID.String(),
		ExternalID: identity.ExternalID,
		CreatedAt:  identity.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// DeleteIdentity DELETE /v1/identities/:external_id - remove an enrolled identity
func (h *FaceHandler) DeleteIdentity(c *fiber.Ctx) error {
	externalID := strings.TrimSpace(c.Params("external_id"))
	if externalID == "" {
		return domain.ErrValidationFailed.WithError(errors.New("external_id is required"))
	}

	if err := h.remover.Delete(c.Context(), externalID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// resolveImage obtains the request image, either uploaded as a multipart
// file or referenced by URL in a JSON body.
func (h *FaceHandler) resolveImage(c *fiber.Ctx) ([]byte, error) {
	contentType := string(c.Request().Header.ContentType())

	if strings.HasPrefix(contentType, fiber.MIMEApplicationJSON) {
		var req imageURLRequest
		if err := c.BodyParser(&req); err != nil {
			return nil, domain.ErrValidationFailed.WithError(err)
		}
		if strings.TrimSpace(req.ImageURL) == "" {
			return nil, domain.ErrValidationFailed.WithError(errors.New("image_url is required"))
		}
		return h.downloader.Image(c.Context(), req.ImageURL)
	}

	return extractAndValidateImage(c)
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrValidationFailed.WithError(err)
	}

	if file.Size > maxImageSize || file.Size == 0 {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return imageBytes, nil
}
