package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"homesite_sync/config"
	"homesite_sync/httputil"
)

// Fetcher retrieves one page or API response from the builder site.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// StatusError is a non-2xx response from the builder site.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func NewFetcher(cfg config.ScraperConfig, clients *httputil.Clients) Fetcher {
	switch cfg.Fetcher {
	case config.FetcherBrowser:
		return NewBrowserFetcher(cfg)
	default:
		return NewHTTPFetcher(clients.Scraping, cfg.UserAgent, cfg.Delay())
	}
}

// HTTPFetcher issues plain GETs, at most one per delay interval.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

func NewHTTPFetcher(client *http.Client, userAgent string, delay time.Duration) *HTTPFetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
