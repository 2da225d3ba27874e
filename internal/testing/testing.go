// package testing contains shared testing utilities
package testing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/shared"
)

// MockDirectory is a test double for [services.FeedDirectory] backed by a static table.
type MockDirectory struct {
	mu         sync.Mutex
	Feeds      map[string]string
	Errors     map[string]error
	discovered map[string]string
	Lookups    int
}

func NewMockDirectory(feeds map[string]string) *MockDirectory {
	return &MockDirectory{Feeds: feeds, Errors: map[string]error{}, discovered: map[string]string{}}
}

func (m *MockDirectory) Lookup(ctx context.Context, feedGUID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups++
	if err, ok := m.Errors[feedGUID]; ok {
		return "", err
	}
	u, ok := m.Feeds[feedGUID]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrUnknownFeed, feedGUID)
	}
	m.discovered[feedGUID] = u
	return u, nil
}

func (m *MockDirectory) Cached(feedGUID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.discovered[feedGUID]
	return u, ok
}

func (m *MockDirectory) Forget() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discovered = map[string]string{}
}

// MockFetcher is a test double for [services.Fetcher] that serves canned bodies and counts
// fetches per URL.
type MockFetcher struct {
	mu     sync.Mutex
	Bodies map[string]string
	Errors map[string]error
	Delay  time.Duration
	calls  map[string]int
}

func NewMockFetcher(bodies map[string]string) *MockFetcher {
	return &MockFetcher{Bodies: bodies, Errors: map[string]error{}, calls: map[string]int{}}
}

func (m *MockFetcher) Fetch(ctx context.Context, feedURL string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", shared.ErrFetchFailure, ctx.Err())
		case <-time.After(m.Delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[feedURL]++
	if err, ok := m.Errors[feedURL]; ok {
		return "", err
	}
	body, ok := m.Bodies[feedURL]
	if !ok {
		return "", fmt.Errorf("%w: %s returned status 404", shared.ErrFetchFailure, feedURL)
	}
	return body, nil
}

// Calls returns how many times feedURL was fetched.
func (m *MockFetcher) Calls(feedURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[feedURL]
}

// Total returns the number of fetches across all URLs.
func (m *MockFetcher) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// MustHashFile returns the hex SHA-256 of the file at path.
func MustHashFile(t *testing.T, path string) string {
	t.Helper()
	sum := sha256.Sum256([]byte(MustReadFile(t, path)))
	return hex.EncodeToString(sum[:])
}
