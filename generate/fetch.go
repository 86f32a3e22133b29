package generate

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/matchday/tifo/renderer"
)

// DefaultFetchTimeout bounds a single asset fetch so a slow remote
// degrades to an element Warning instead of stalling the whole call.
const DefaultFetchTimeout = 10 * time.Second

// HTTPFetcher fetches and decodes images from http(s) URLs, with file
// paths as a fallback for local packs. Safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

var _ renderer.AssetFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher with the given per-request timeout;
// zero means DefaultFetchTimeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}, timeout: timeout}
}

// Fetch resolves ref into a decoded image.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty asset reference")
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return fetchFile(ref)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", ref, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s", ref, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return img, nil
}

func fetchFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// FetcherFunc adapts a function to the AssetFetcher interface.
type FetcherFunc func(ctx context.Context, ref string) (image.Image, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, ref string) (image.Image, error) { return f(ctx, ref) }
