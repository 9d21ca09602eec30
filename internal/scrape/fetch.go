// Package scrape turns rendered ladder pages into raw rows and export codes,
// and enriches scraped builds one export code at a time.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves a page body by URL or local path.
type Fetcher interface {
	Fetch(ctx context.Context, target string) ([]byte, error)
}

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// HTTPFetcher fetches pages over HTTP. Pages are expected to be rendered HTML;
// the ladder itself builds its table client-side, so point it at a
// pre-rendering proxy or saved pages.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	// MaxBytes caps the body size; 0 means 16 MiB.
	MaxBytes int64
}

// NewHTTPFetcher returns a fetcher with a 30s client timeout.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: 30 * time.Second},
		UserAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	return body, nil
}

// FileFetcher reads saved pages from disk. Targets starting with http(s)://
// are rejected so a misconfigured base URL fails loudly.
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isRemote(target) {
		return nil, fmt.Errorf("file fetcher cannot load remote target %s", target)
	}
	data, err := os.ReadFile(strings.TrimPrefix(target, "file://"))
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", target, err)
	}
	return data, nil
}

// AutoFetcher dispatches http(s) targets to HTTP and everything else to disk.
type AutoFetcher struct {
	HTTP *HTTPFetcher
	File FileFetcher
}

func (f *AutoFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if isRemote(target) {
		return f.HTTP.Fetch(ctx, target)
	}
	return f.File.Fetch(ctx, target)
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}
