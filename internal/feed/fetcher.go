package feed

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pders01/zpost/internal/config"
)

const (
	acceptFeed = "application/rss+xml, application/atom+xml, application/xml, text/xml"
	acceptHTML = "text/html, application/xhtml+xml"

	// maxBodySize caps every upstream read.
	maxBodySize = 10 << 20
)

// Fetcher performs the anonymous GET requests against the platform. All
// reads share one rate limiter and one User-Agent.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewFetcher(cfg *config.Config) *Fetcher {
	limit := rate.Inf
	if cfg.Feed.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.Feed.RequestsPerSecond)
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Feed.HTTPTimeout,
		},
		userAgent: cfg.Feed.UserAgent,
		limiter:   rate.NewLimiter(limit, int(math.Max(1, math.Ceil(cfg.Feed.RequestsPerSecond)))),
	}
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d (%s)", e.StatusCode, e.URL)
}

// Get reads url and returns the body of a 2xx response.
func (f *Fetcher) Get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return body, nil
}
