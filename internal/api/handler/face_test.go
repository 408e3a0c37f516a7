package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/turmalabs/presenca/internal/api/middleware"
	"github.com/turmalabs/presenca/internal/domain"
)

// MockRecognitionService is a mock implementation of RecognitionService
type MockRecognitionService struct {
	mock.Mock
}

func (m *MockRecognitionService) GetFaceEmbedding(ctx context.Context, imageBytes []byte) ([]float64, error) {
	args := m.Called(ctx, imageBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

func (m *MockRecognitionService) RecognizeFaces(ctx context.Context, imageBytes []byte) (*domain.RecognitionResult, error) {
	args := m.Called(ctx, imageBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecognitionResult), args.Error(1)
}

func (m *MockRecognitionService) Enroll(ctx context.Context, externalID string, imageBytes []byte) (*domain.Identity, error) {
	args := m.Called(ctx, externalID, imageBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Identity), args.Error(1)
}

// MockDownloader is a mock implementation of ImageDownloader
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Image(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockRemover is a mock implementation of IdentityRemover
type MockRemover struct {
	mock.Mock
}

func (m *MockRemover) Delete(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper to create multipart request
func createMultipartRequest(externalID string, imageContent []byte, contentType string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if externalID != "" {
		_ = writer.WriteField("external_id", externalID)
	}

	if imageContent != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="test.jpg"`)
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		_, _ = part.Write(imageContent)
	}

	_ = writer.Close()
	return body, writer.FormDataContentType(), nil
}

func createTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})
}

func TestFaceHandler_Encode(t *testing.T) {
	tests := []struct {
		name           string
		imageContent   []byte
		contentType    string
		setupMock      func(*MockRecognitionService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:         "successful encode",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockRecognitionService) {
				m.On("GetFaceEmbedding", mock.Anything, mock.Anything).
					Return([]float64{0.1, 0.2, 0.3}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp EncodeResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "success", resp.Status)
				assert.Equal(t, []float64{0.1, 0.2, 0.3}, resp.Embedding)
			},
		},
		{
			name:         "no face detected",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockRecognitionService) {
				m.On("GetFaceEmbedding", mock.Anything, mock.Anything).
					Return(nil, domain.ErrNoFaceDetected)
			},
			expectedStatus: 422,
		},
		{
			name:         "multiple faces detected",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockRecognitionService) {
				m.On("GetFaceEmbedding", mock.Anything, mock.Anything).
					Return(nil, domain.ErrMultipleFaces)
			},
			expectedStatus: 422,
		},
		{
			name:         "embedding engine down",
			imageContent: make([]byte, 5000),
			contentType:  "image/jpeg",
			setupMock: func(m *MockRecognitionService) {
				m.On("GetFaceEmbedding", mock.Anything, mock.Anything).
					Return(nil, domain.ErrEmbeddingFailed)
			},
			expectedStatus: 502,
		},
		{
			name:           "missing image file",
			imageContent:   nil,
			contentType:    "",
			setupMock:      func(m *MockRecognitionService) {},
			expectedStatus: 422,
		},
		{
			name:           "unsupported content type",
			imageContent:   make([]byte, 5000),
			contentType:    "application/pdf",
			setupMock:      func(m *MockRecognitionService) {},
			expectedStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockRecognitionService{}
			tt.setupMock(mockService)

			h := NewFaceHandler(mockService, &MockDownloader{}, &MockRemover{}, testLogger())
			app := createTestApp()
			app.Post("/v1/faces/encode", h.Encode)

			body, contentType, _ := createMultipartRequest("", tt.imageContent, tt.contentType)

			req := httptest.NewRequest("POST", "/v1/faces/encode", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_Recognize(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockRecognitionService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "recognizes enrolled people",
			setupMock: func(m *MockRecognitionService) {
				m.On("RecognizeFaces", mock.Anything, mock.Anything).
					Return(&domain.RecognitionResult{
						ExternalIDs:    []string{"S1", "S3"},
						FacesProcessed: 4,
					}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp RecognizeResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "success", resp.Status)
				assert.Equal(t, []string{"S1", "S3"}, resp.RecognizedIDs)
				assert.Equal(t, 2, resp.Count)
				assert.Equal(t, 4, resp.FacesProcessed)
			},
		},
		{
			name: "nobody recognized",
			setupMock: func(m *MockRecognitionService) {
				m.On("RecognizeFaces", mock.Anything, mock.Anything).
					Return(&domain.RecognitionResult{
						ExternalIDs:    []string{},
						FacesProcessed: 2,
					}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp RecognizeResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Empty(t, resp.RecognizedIDs)
				assert.Equal(t, 0, resp.Count)
				assert.Equal(t, 2, resp.FacesProcessed)
			},
		},
		{
			name: "registry unavailable",
			setupMock: func(m *MockRecognitionService) {
				m.On("RecognizeFaces", mock.Anything, mock.Anything).
					Return(nil, domain.ErrRegistryUnavailable)
			},
			expectedStatus: 503,
		},
		{
			name: "detection failed upstream",
			setupMock: func(m *MockRecognitionService) {
				m.On("RecognizeFaces", mock.Anything, mock.Anything).
					Return(nil, domain.ErrDetectionFailed)
			},
			expectedStatus: 502,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockRecognitionService{}
			tt.setupMock(mockService)

			h := NewFaceHandler(mockService, &MockDownloader{}, &MockRemover{}, testLogger())
			app := createTestApp()
			app.Post("/v1/faces/recognize", h.Recognize)

			body, contentType, _ := createMultipartRequest("", make([]byte, 5000), "image/jpeg")

			req := httptest.NewRequest("POST", "/v1/faces/recognize", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_Recognize_ByURL(t *testing.T) {
	imageBytes := []byte("downloaded image bytes")

	mockService := &MockRecognitionService{}
	mockService.On("RecognizeFaces", mock.Anything, imageBytes).
		Return(&domain.RecognitionResult{ExternalIDs: []string{"S1"}, FacesProcessed: 1}, nil)

	mockDownloader := &MockDownloader{}
	mockDownloader.On("Image", mock.Anything, "https://example.com/class.jpg").
		Return(imageBytes, nil)

	h := NewFaceHandler(mockService, mockDownloader, &MockRemover{}, testLogger())
	app := createTestApp()
	app.Post("/v1/faces/recognize", h.Recognize)

	payload, _ := json.Marshal(map[string]string{"image_url": "https://example.com/class.jpg"})
	req := httptest.NewRequest("POST", "/v1/faces/recognize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	mockService.AssertExpectations(t)
	mockDownloader.AssertExpectations(t)
}

func TestFaceHandler_Recognize_ByURL_Errors(t *testing.T) {
	tests := []struct {
		name           string
		payload        string
		setupMock      func(*MockDownloader)
		expectedStatus int
	}{
		{
			name:           "missing image_url",
			payload:        `{}`,
			setupMock:      func(m *MockDownloader) {},
			expectedStatus: 422,
		},
		{
			name:    "download failed",
			payload: `{"image_url":"https://example.com/gone.jpg"}`,
			setupMock: func(m *MockDownloader) {
				m.On("Image", mock.Anything, "https://example.com/gone.jpg").
					Return(nil, domain.ErrDownloadFailed)
			},
			expectedStatus: 400,
		},
		{
			name:    "download timed out",
			payload: `{"image_url":"https://example.com/slow.jpg"}`,
			setupMock: func(m *MockDownloader) {
				m.On("Image", mock.Anything, "https://example.com/slow.jpg").
					Return(nil, domain.ErrDownloadTimeout)
			},
			expectedStatus: 408,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDownloader := &MockDownloader{}
			tt.setupMock(mockDownloader)

			h := NewFaceHandler(&MockRecognitionService{}, mockDownloader, &MockRemover{}, testLogger())
			app := createTestApp()
			app.Post("/v1/faces/recognize", h.Recognize)

			req := httptest.NewRequest("POST", "/v1/faces/recognize", bytes.NewReader([]byte(tt.payload)))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			mockDownloader.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_Enroll(t *testing.T) {
	identityID := uuid.New()

	tests := []struct {
		name           string
		externalID     string
		setupMock      func(*MockRecognitionService)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:       "successful enrollment",
			externalID: "S1",
			setupMock: func(m *MockRecognitionService) {
				m.On("Enroll", mock.Anything, "S1", mock.Anything).
					Return(&domain.Identity{
						ID:         identityID,
						ExternalID: "S1",
						CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
					}, nil)
			},
			expectedStatus: 201,
			checkResponse: func(t *testing.T, body []byte) {
				var resp EnrollResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, identityID.String(), resp.ID)
				assert.Equal(t, "S1", resp.ExternalID)
			},
		},
		{
			name:           "missing external_id",
			externalID:     "",
			setupMock:      func(m *MockRecognitionService) {},
			expectedStatus: 422,
		},
		{
			name:       "identity already enrolled",
			externalID: "S1",
			setupMock: func(m *MockRecognitionService) {
				m.On("Enroll", mock.Anything, "S1", mock.Anything).
					Return(nil, domain.ErrIdentityExists)
			},
			expectedStatus: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockRecognitionService{}
			tt.setupMock(mockService)

			h := NewFaceHandler(mockService, &MockDownloader{}, &MockRemover{}, testLogger())
			app := createTestApp()
			app.Post("/v1/identities", h.Enroll)

			body, contentType, _ := createMultipartRequest(tt.externalID, make([]byte, 5000), "image/jpeg")

			req := httptest.NewRequest("POST", "/v1/identities", body)
			req.Header.Set("Content-Type", contentType)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_DeleteIdentity(t *testing.T) {
	tests := []struct {
		name           string
		externalID     string
		setupMock      func(*MockRemover)
		expectedStatus int
	}{
		{
			name:       "successful deletion",
			externalID: "S1",
			setupMock: func(m *MockRemover) {
				m.On("Delete", mock.Anything, "S1").Return(nil)
			},
			expectedStatus: 204,
		},
		{
			name:       "unknown identity",
			externalID: "ghost",
			setupMock: func(m *MockRemover) {
				m.On("Delete", mock.Anything, "ghost").Return(domain.ErrIdentityNotFound)
			},
			expectedStatus: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRemover := &MockRemover{}
			tt.setupMock(mockRemover)

			h := NewFaceHandler(&MockRecognitionService{}, &MockDownloader{}, mockRemover, testLogger())
			app := createTestApp()
			app.Delete("/v1/identities/:external_id", h.DeleteIdentity)

			req := httptest.NewRequest("DELETE", "/v1/identities/"+tt.externalID, nil)

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			mockRemover.AssertExpectations(t)
		})
	}
}
