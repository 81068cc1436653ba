package enricher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/conneroisu/palette/internal/errors"
)

// Fetcher retrieves declaration text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// DefaultMaxBytes caps the size of a fetched declaration file.
const DefaultMaxBytes int64 = 2 << 20

// HTTPFetcher fetches declaration files over HTTP.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with the given timeout and size limit.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

// Fetch returns the body of a successful GET.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/plain, application/typescript, */*")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, "declaration request failed", err).WithLocation(url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithLocation(url)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", errors.NewNetworkError(errors.ErrCodeFetchFailed, "declaration read failed", err).WithLocation(url)
	}
	return string(body), nil
}
