package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code, so errors.Is works against the pre-defined
// sentinels even after WithError wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}

	ErrDetectionFailed = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    "Face detection failed",
		StatusCode: 502,
	}

	ErrEmbeddingFailed = &AppError{
		Code:       "EMBEDDING_FAILED",
		Message:    "Failed to generate face embedding",
		StatusCode: 502,
	}

	ErrRegistryUnavailable = &AppError{
		Code:       "REGISTRY_UNAVAILABLE",
		Message:    "Identity registry is unavailable",
		StatusCode: 503,
	}

	ErrIdentityExists = &AppError{
		Code:       "IDENTITY_ALREADY_EXISTS",
		Message:    "Identity already enrolled for this external_id",
		StatusCode: 409,
	}

	ErrIdentityNotFound = &AppError{
		Code:       "IDENTITY_NOT_FOUND",
		Message:    "Identity not found",
		StatusCode: 404,
	}

	ErrDownloadFailed = &AppError{
		Code:       "DOWNLOAD_FAILED",
		Message:    "Failed to download image from URL",
		StatusCode: 400,
	}

	ErrDownloadTimeout = &AppError{
		Code:       "DOWNLOAD_TIMEOUT",
		Message:    "Timeout downloading image",
		StatusCode: 408,
	}
)
