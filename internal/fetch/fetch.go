// Package fetch downloads images referenced by URL, the alternative request
// form to direct upload.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/turmalabs/presenca/internal/domain"
)

const (
	// DefaultTimeout bounds one download end to end.
	DefaultTimeout = 10 * time.Second

	// maxImageBytes caps the downloaded payload.
	maxImageBytes = 10 * 1024 * 1024
)

// Client downloads images over HTTP with a fixed timeout.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a download client. timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Image fetches the raw image bytes at url. Timeouts surface as
// domain.ErrDownloadTimeout, everything else as domain.ErrDownloadFailed.
func (c *Client) Image(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.ErrDownloadFailed.WithError(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrDownloadTimeout.WithError(err)
		}
		return nil, domain.ErrDownloadFailed.WithError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, domain.ErrDownloadFailed.WithError(fmt.Errorf("remote returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		if isTimeout(err) {
			return nil, domain.ErrDownloadTimeout.WithError(err)
		}
		return nil, domain.ErrDownloadFailed.WithError(err)
	}

	if len(data) == 0 {
		return nil, domain.ErrDownloadFailed.WithError(errors.New("empty response body"))
	}
	if len(data) > maxImageBytes {
		return nil, domain.ErrDownloadFailed.WithError(errors.New("image exceeds size limit"))
	}

	return data, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
