package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/shared"
	tu "github.com/desertthunder/v4vx/internal/testing"
)

func newTestDirectory(t *testing.T, baseURL string, client *http.Client) *DirectoryClient {
	t.Helper()
	d, err := NewDirectoryClient(DirectoryOpts{
		BaseURL:    baseURL,
		APIKey:     "key",
		APISecret:  "secret",
		RateLimit:  1000,
		HTTPClient: client,
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("NewDirectoryClient failed: %v", err)
	}
	return d
}

func TestDirectoryClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Requires Credentials", func(t *testing.T) {
			_, err := NewDirectoryClient(DirectoryOpts{APIKey: "key"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			d := newTestDirectory(t, "", nil)
			if d.baseURL != defaultDirectoryBaseURL {
				t.Errorf("expected default base url, got %s", d.baseURL)
			}
			if d.userAgent != defaultDirectoryUserAgent {
				t.Errorf("expected default user agent, got %s", d.userAgent)
			}
		})
	})

	t.Run("Lookup", func(t *testing.T) {
		t.Run("Signs Request And Caches URL", func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if r.URL.Path != "/podcasts/byguid" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("guid"); got != "feed-1" {
					t.Errorf("expected guid feed-1, got %s", got)
				}
				if got := r.Header.Get("X-Auth-Key"); got != "key" {
					t.Errorf("expected X-Auth-Key key, got %s", got)
				}
				if got := r.Header.Get("X-Auth-Date"); got != "1700000000" {
					t.Errorf("expected X-Auth-Date 1700000000, got %s", got)
				}
				if got := r.Header.Get("Authorization"); got != AuthDigest("key", "secret", "1700000000") {
					t.Errorf("unexpected Authorization %s", got)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"status":"true","feed":{"id":7,"url":"https://example.com/feed.xml","title":"Band Feed"}}`)
			}))
			defer server.Close()

			d := newTestDirectory(t, server.URL, server.Client())
			for range 2 {
				u, err := d.Lookup(context.Background(), "feed-1")
				if err != nil {
					t.Fatalf("Lookup failed: %v", err)
				}
				if u != "https://example.com/feed.xml" {
					t.Errorf("unexpected url %s", u)
				}
			}

			if atomic.LoadInt32(&calls) != 1 {
				t.Errorf("expected 1 API call, got %d", calls)
			}
			if _, ok := d.Cached("feed-1"); !ok {
				t.Error("expected feed-1 to be discovered")
			}

			d.Forget()
			if d.Discovered() != 0 {
				t.Error("expected Forget to clear discovered urls")
			}
		})

		t.Run("Boolean Status", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"status":true,"feed":{"url":"https://example.com/a.xml","title":"A"}}`)
			}))
			defer server.Close()

			d := newTestDirectory(t, server.URL, server.Client())
			if _, err := d.Lookup(context.Background(), "a"); err != nil {
				t.Errorf("expected boolean status to be accepted, got %v", err)
			}
		})

		tests := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{"Empty Feed Array", http.StatusOK, `{"status":"true","feed":[],"description":"No feeds match this guid."}`, shared.ErrUnknownFeed},
			{"False Status", http.StatusOK, `{"status":"false","feed":{"url":"https://example.com/x.xml","title":"X"}}`, shared.ErrUnknownFeed},
			{"Not Found Status", http.StatusNotFound, `{}`, shared.ErrUnknownFeed},
			{"Missing Title", http.StatusOK, `{"status":"true","feed":{"url":"https://example.com/x.xml","title":""}}`, shared.ErrCorruptedFeed},
			{"Server Error", http.StatusInternalServerError, `oops`, shared.ErrAPIRequest},
			{"Malformed JSON", http.StatusOK, `{"status":`, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					io.WriteString(w, tt.body)
				}))
				defer server.Close()

				d := newTestDirectory(t, server.URL, server.Client())
				_, err := d.Lookup(context.Background(), "guid")
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if _, ok := d.Cached("guid"); ok {
					t.Error("failed lookups must not be cached")
				}
			})
		}

		t.Run("Transport Error", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
			d := newTestDirectory(t, "http://directory.invalid", client)

			_, err := d.Lookup(context.Background(), "guid")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Read Error", func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
			client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
			d := newTestDirectory(t, "http://directory.invalid", client)

			_, err := d.Lookup(context.Background(), "guid")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Empty GUID", func(t *testing.T) {
			d := newTestDirectory(t, "http://directory.invalid", nil)
			if _, err := d.Lookup(context.Background(), "  "); !errors.Is(err, shared.ErrUnknownFeed) {
				t.Errorf("expected ErrUnknownFeed, got %v", err)
			}
		})
	})

	t.Run("AuthDigest", func(t *testing.T) {
		// sha1("abc")
		if got := AuthDigest("a", "b", "c"); got != "a9993e364706816aba3e25717850c26c9cd0d89d" {
			t.Errorf("unexpected digest %s", got)
		}
	})
}

func TestFeedFetcher(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		f := NewFeedFetcher(nil, "", 0)
		if f.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
		if f.timeout != defaultFetchTimeout {
			t.Errorf("expected default timeout, got %s", f.timeout)
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != "test-agent" {
					t.Errorf("unexpected user agent %s", r.Header.Get("User-Agent"))
				}
				io.WriteString(w, "<rss><channel><title>T</title></channel></rss>")
			}))
			defer server.Close()

			f := NewFeedFetcher(server.Client(), "test-agent", time.Second)
			body, err := f.Fetch(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if !strings.Contains(body, "<title>T</title>") {
				t.Errorf("unexpected body %q", body)
			}
		})

		t.Run("Non 2xx", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			f := NewFeedFetcher(server.Client(), "", time.Second)
			_, err := f.Fetch(context.Background(), server.URL)
			if !errors.Is(err, shared.ErrFetchFailure) {
				t.Errorf("expected ErrFetchFailure, got %v", err)
			}
		})

		t.Run("Timeout", func(t *testing.T) {
			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer server.Close()
			defer close(release)

			f := NewFeedFetcher(server.Client(), "", 50*time.Millisecond)
			_, err := f.Fetch(context.Background(), server.URL)
			if !errors.Is(err, shared.ErrFetchFailure) {
				t.Errorf("expected ErrFetchFailure, got %v", err)
			}
		})

		t.Run("Oversized Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<rss><channel><title>T</title></channel></rss>")
			}))
			defer server.Close()

			f := NewFeedFetcher(server.Client(), "", time.Second)
			f.maxBytes = 16
			_, err := f.Fetch(context.Background(), server.URL)
			if !errors.Is(err, shared.ErrFetchFailure) || !strings.Contains(err.Error(), "feed limit") {
				t.Errorf("expected ErrFetchFailure for oversized feed, got %v", err)
			}

			f.maxBytes = 46
			if _, err := f.Fetch(context.Background(), server.URL); err != nil {
				t.Errorf("body at the limit should be accepted, got %v", err)
			}
		})

		t.Run("Empty URL", func(t *testing.T) {
			f := NewFeedFetcher(nil, "", time.Second)
			if _, err := f.Fetch(context.Background(), ""); !errors.Is(err, shared.ErrFetchFailure) {
				t.Errorf("expected ErrFetchFailure, got %v", err)
			}
		})
	})
}
