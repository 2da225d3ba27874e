package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/v4vx/internal/shared"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxFeedBytes        = 32 << 20
)

// FeedFetcher downloads feed documents with a per-fetch timeout.
type FeedFetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxBytes   int64
}

var _ Fetcher = (*FeedFetcher)(nil)

// NewFeedFetcher creates a fetcher. A nil client falls back to [http.DefaultClient] and a
// non-positive timeout to 15s.
func NewFeedFetcher(client *http.Client, userAgent string, timeout time.Duration) *FeedFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = defaultDirectoryUserAgent
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &FeedFetcher{
		httpClient: client,
		userAgent:  userAgent,
		timeout:    timeout,
		maxBytes:   maxFeedBytes,
	}
}

// Fetch performs a GET of feedURL and returns the body.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return "", fmt.Errorf("%w: empty feed url", shared.ErrFetchFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", shared.ErrFetchFailure, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w: %s after %s", shared.ErrFetchFailure, shared.ErrTimeout, feedURL, f.timeout)
		}
		return "", fmt.Errorf("%w: request failed: %v", shared.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s returned status %d", shared.ErrFetchFailure, feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", shared.ErrFetchFailure, err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", fmt.Errorf("%w: %s exceeds the %d byte feed limit", shared.ErrFetchFailure, feedURL, f.maxBytes)
	}

	return string(body), nil
}
