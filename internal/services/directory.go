// Feed directory [FeedDirectory] implementation
//
// Talks to a Podcast Index compatible API. Every request is signed with the API key, the
// current unix time and a SHA-1 digest of key+secret+time.
package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultDirectoryBaseURL   = "https://api.podcastindex.org/api/1.0"
	defaultDirectoryUserAgent = "v4vx/0.3"
	defaultDirectoryRate      = 5.0
)

// DirectoryFeed is the feed object returned by the by-GUID endpoint.
type DirectoryFeed struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

// flexBool accepts true, "true" and 1.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	*b = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

type directoryResponse struct {
	Status      flexBool        `json:"status"`
	Feed        json.RawMessage `json:"feed"`
	Description string          `json:"description"`
}

// DirectoryOpts configures a [DirectoryClient].
type DirectoryOpts struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	UserAgent  string
	RateLimit  float64 // requests per second
	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time
}

// DirectoryClient implements [FeedDirectory] against the directory API.
type DirectoryClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	now        func() time.Time

	mu         sync.RWMutex
	discovered map[string]string
}

var _ FeedDirectory = (*DirectoryClient)(nil)

// NewDirectoryClient creates a directory client. Credentials are required.
func NewDirectoryClient(opts DirectoryOpts) (*DirectoryClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.APISecret) == "" {
		return nil, fmt.Errorf("%w: directory api key and secret", shared.ErrMissingCredentials)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultDirectoryBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultDirectoryUserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultDirectoryRate
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &DirectoryClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:     shared.WithLogger(opts.Logger, "component", "directory"),
		now:        opts.Now,
		discovered: make(map[string]string),
	}, nil
}

// Cached returns a URL discovered earlier in this process.
func (d *DirectoryClient) Cached(feedGUID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.discovered[strings.TrimSpace(feedGUID)]
	return u, ok
}

// Forget drops all discovered mappings.
func (d *DirectoryClient) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discovered = make(map[string]string)
}

// Discovered returns the number of discovered mappings.
func (d *DirectoryClient) Discovered() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.discovered)
}

// Lookup returns the feed URL for feedGUID.
func (d *DirectoryClient) Lookup(ctx context.Context, feedGUID string) (string, error) {
	feedGUID = strings.TrimSpace(feedGUID)
	if feedGUID == "" {
		return "", fmt.Errorf("%w: empty feed guid", shared.ErrUnknownFeed)
	}
	if u, ok := d.Cached(feedGUID); ok {
		return u, nil
	}

	feed, err := d.LookupFeed(ctx, feedGUID)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.discovered[feedGUID] = feed.URL
	d.mu.Unlock()

	d.logger.Debug("discovered feed", "guid", feedGUID, "url", feed.URL, "title", feed.Title)
	return feed.URL, nil
}

// LookupFeed calls the by-GUID endpoint without touching the discovered table.
func (d *DirectoryClient) LookupFeed(ctx context.Context, feedGUID string) (*DirectoryFeed, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	endpoint := fmt.Sprintf("%s/podcasts/byguid?guid=%s", d.baseURL, url.QueryEscape(feedGUID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrAPIRequest, err)
	}
	d.sign(req.Header)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownFeed, feedGUID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: directory status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var parsed directoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}

	// a miss comes back as "feed": [] rather than an object
	var feed DirectoryFeed
	if raw := bytes.TrimSpace(parsed.Feed); len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &feed); err != nil {
			return nil, fmt.Errorf("%w: failed to decode feed: %v", shared.ErrAPIRequest, err)
		}
	}

	if !bool(parsed.Status) || strings.TrimSpace(feed.URL) == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownFeed, feedGUID)
	}
	if strings.TrimSpace(feed.Title) == "" {
		return nil, fmt.Errorf("%w: directory lists %s without a title", shared.ErrCorruptedFeed, feedGUID)
	}

	feed.URL = strings.TrimSpace(feed.URL)
	return &feed, nil
}

// sign sets the directory auth headers for the current time.
func (d *DirectoryClient) sign(h http.Header) {
	ts := strconv.FormatInt(d.now().Unix(), 10)
	h.Set("User-Agent", d.userAgent)
	h.Set("X-Auth-Key", d.apiKey)
	h.Set("X-Auth-Date", ts)
	h.Set("Authorization", AuthDigest(d.apiKey, d.apiSecret, ts))
}

// AuthDigest returns the hex SHA-1 of key+secret+timestamp.
func AuthDigest(key, secret, timestamp string) string {
	sum := sha1.Sum([]byte(key + secret + timestamp))
	return hex.EncodeToString(sum[:])
}
