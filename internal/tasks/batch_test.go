package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/resolver"
	"github.com/desertthunder/v4vx/internal/shared"
	tu "github.com/desertthunder/v4vx/internal/testing"
)

func feedXML(title string, guids ...string) string {
	s := "<rss><channel><title>" + title + "</title>"
	for _, g := range guids {
		s += fmt.Sprintf(`<item><guid>%s</guid><title>Track %s</title><enclosure url="https://x/%s.mp3"/></item>`, g, g, g)
	}
	return s + "</channel></rss>"
}

func newTestEngine(t *testing.T, opts BatchOpts) (*BatchEngine, *tu.MockFetcher) {
	t.Helper()
	fetcher := tu.NewMockFetcher(map[string]string{
		"https://f/a.xml": feedXML("Feed A", "a1", "a2", "a3"),
		"https://f/b.xml": feedXML("Feed B", "b1"),
		"https://f/c.xml": feedXML("Feed C", "c1", "c2"),
	})
	dir := tu.NewMockDirectory(map[string]string{"feed-c": "https://f/c.xml"})
	r := resolver.New(resolver.Opts{
		Seed: map[string]string{
			"feed-a":    "https://f/a.xml",
			"feed-b":    "https://f/b.xml",
			"feed-down": "https://f/down.xml",
		},
		Directory: dir,
		Fetcher:   fetcher,
	})
	return NewBatchEngine(r, opts, nil), fetcher
}

func refs(pairs ...string) []models.RemoteItemReference {
	out := make([]models.RemoteItemReference, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.RemoteItemReference{FeedGUID: pairs[i], ItemGUID: pairs[i+1]})
	}
	return out
}

// flakyResolver fails Feed with err for the first n calls.
type flakyResolver struct {
	mu    sync.Mutex
	err   error
	n     int
	calls int
}

func (f *flakyResolver) Feed(ctx context.Context, feedGUID string) (resolver.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.n {
		return nil, f.err
	}
	return resolver.RegexExtractor{}.Load(feedXML("Flaky", "x"))
}

func (f *flakyResolver) Item(doc resolver.Document, itemGUID string) models.ResolvedTrack {
	return resolver.New(resolver.Opts{}).Item(doc, itemGUID)
}

// slowResolver holds each Feed call briefly and records the peak number in flight.
type slowResolver struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	hold     time.Duration
}

func (s *slowResolver) Feed(ctx context.Context, feedGUID string) (resolver.Document, error) {
	s.mu.Lock()
	s.inFlight++
	s.peak = max(s.peak, s.inFlight)
	s.mu.Unlock()

	time.Sleep(s.hold)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return resolver.RegexExtractor{}.Load(feedXML(feedGUID, "x"))
}

func (s *slowResolver) Item(doc resolver.Document, itemGUID string) models.ResolvedTrack {
	return resolver.New(resolver.Opts{}).Item(doc, itemGUID)
}

func TestNewBatchEngine(t *testing.T) {
	tests := []struct {
		name    string
		in      BatchOpts
		workers int
		wave    int
	}{
		{"Defaults", BatchOpts{}, 10, 50},
		{"Clamped", BatchOpts{Workers: 64, WaveSize: 5}, 15, 5},
		{"Explicit", BatchOpts{Workers: 3, WaveSize: 7}, 3, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewBatchEngine(&flakyResolver{}, tt.in, nil)
			if e.Opts().Workers != tt.workers || e.Opts().WaveSize != tt.wave {
				t.Errorf("got workers=%d wave=%d, want %d/%d", e.Opts().Workers, e.Opts().WaveSize, tt.workers, tt.wave)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	groups := partition(refs("f2", "x", "f1", "a", "f2", "y", "f1", "a", " f1 ", "b"))

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].feedGUID != "f2" || groups[1].feedGUID != "f1" {
		t.Errorf("groups should keep first-seen order, got %s, %s", groups[0].feedGUID, groups[1].feedGUID)
	}
	if len(groups[1].items) != 2 {
		t.Errorf("duplicate keys should be dropped, got %v", groups[1].items)
	}
	if keys := groups[1].keys["b"]; len(keys) != 1 || keys[0] != " f1 :b" {
		t.Errorf("input key should be kept untrimmed, got %v", keys)
	}
}

func TestResolveBatch_Completeness(t *testing.T) {
	e, _ := newTestEngine(t, BatchOpts{Workers: 4})
	input := refs(
		"feed-a", "a1",
		"feed-a", "a2",
		"feed-a", "a1",
		"feed-b", "b1",
		"feed-c", "c2",
		"feed-a", "missing",
		"nowhere", "x",
	)

	result, err := e.ResolveBatch(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}

	if len(result) != 6 {
		t.Fatalf("expected 6 distinct entries, got %d: %v", len(result), result.Keys())
	}

	tests := map[string]models.ErrorKind{
		"feed-a:a1":      models.NoError,
		"feed-a:a2":      models.NoError,
		"feed-b:b1":      models.NoError,
		"feed-c:c2":      models.NoError,
		"feed-a:missing": models.EpisodeNotFound,
		"nowhere:x":      models.UnknownFeed,
	}
	for key, want := range tests {
		got, ok := result[key]
		if !ok {
			t.Errorf("missing entry %s", key)
			continue
		}
		if got.Error != want || got.Success != (want == models.NoError) {
			t.Errorf("%s = %+v, want error %q", key, got, want)
		}
	}

	if got := result["feed-a:a2"]; got.Title != "Track a2" || got.AudioURL != "https://x/a2.mp3" || got.Artist != "Feed A" {
		t.Errorf("unexpected track %+v", got)
	}
	if result.Summary() != "resolved 4 of 6 tracks" {
		t.Errorf("Summary() = %q", result.Summary())
	}

	t.Run("Untrimmed Keys", func(t *testing.T) {
		e, fetcher := newTestEngine(t, BatchOpts{Workers: 2})
		input := refs("feed-a ", " a1", "feed-a", "a1", "feed-a", " missing ")

		result, err := e.ResolveBatch(context.Background(), input, nil)
		if err != nil {
			t.Fatalf("ResolveBatch failed: %v", err)
		}

		if len(result) != 3 {
			t.Fatalf("expected one entry per input key, got %v", result.Keys())
		}
		for _, ref := range input[:2] {
			if got, ok := result[ref.Key()]; !ok || !got.Success || got.Title != "Track a1" {
				t.Errorf("%q = %+v (present=%v), want resolved track", ref.Key(), got, ok)
			}
		}
		if got := result["feed-a: missing "]; got.Error != models.EpisodeNotFound {
			t.Errorf("expected EpisodeNotFound for untrimmed missing item, got %+v", got)
		}
		if fetcher.Calls("https://f/a.xml") != 1 {
			t.Errorf("whitespace variants should share one fetch, got %d", fetcher.Calls("https://f/a.xml"))
		}
	})
}

func TestResolveBatch_FetchMinimization(t *testing.T) {
	e, fetcher := newTestEngine(t, BatchOpts{Workers: 15})
	input := refs(
		"feed-a", "a1", "feed-a", "a2", "feed-a", "a3",
		"feed-b", "b1",
		"feed-c", "c1", "feed-c", "c2",
	)

	if _, err := e.ResolveBatch(context.Background(), input, nil); err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}

	if fetcher.Total() > 3 {
		t.Errorf("expected at most 3 fetches for 3 feeds, got %d", fetcher.Total())
	}
	for _, u := range []string{"https://f/a.xml", "https://f/b.xml", "https://f/c.xml"} {
		if fetcher.Calls(u) != 1 {
			t.Errorf("expected 1 fetch of %s, got %d", u, fetcher.Calls(u))
		}
	}
}

func TestResolveBatch_FeedFailurePropagation(t *testing.T) {
	e, _ := newTestEngine(t, BatchOpts{})
	input := refs("feed-down", "d1", "feed-down", "d2", "feed-b", "b1")

	result, err := e.ResolveBatch(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}

	for _, key := range []string{"feed-down:d1", "feed-down:d2"} {
		if result[key].Error != models.FetchFailure {
			t.Errorf("%s = %+v, want FetchFailure", key, result[key])
		}
	}
	if !result["feed-b:b1"].Success {
		t.Errorf("other feeds must be unaffected, got %+v", result["feed-b:b1"])
	}
	if got := result.Failures()[models.FetchFailure]; got != 2 {
		t.Errorf("expected 2 fetch failures, got %d", got)
	}
}

func TestResolveBatch_Retries(t *testing.T) {
	t.Run("Retryable Failure Recovers", func(t *testing.T) {
		fr := &flakyResolver{err: fmt.Errorf("%w: status 503", shared.ErrFetchFailure), n: 1}
		e := NewBatchEngine(fr, BatchOpts{Retries: 1, RetryDelay: time.Millisecond}, nil)

		result, _ := e.ResolveBatch(context.Background(), refs("flaky", "x"), nil)
		if !result["flaky:x"].Success {
			t.Errorf("expected success after retry, got %+v", result["flaky:x"])
		}
		if fr.calls != 2 {
			t.Errorf("expected 2 attempts, got %d", fr.calls)
		}
	})

	t.Run("Retries Exhausted", func(t *testing.T) {
		fr := &flakyResolver{err: fmt.Errorf("%w: status 503", shared.ErrAPIRequest), n: 5}
		e := NewBatchEngine(fr, BatchOpts{Retries: 2}, nil)

		result, _ := e.ResolveBatch(context.Background(), refs("flaky", "x"), nil)
		if result["flaky:x"].Error != models.FetchFailure {
			t.Errorf("expected FetchFailure, got %+v", result["flaky:x"])
		}
		if fr.calls != 3 {
			t.Errorf("expected 3 attempts, got %d", fr.calls)
		}
	})

	t.Run("Terminal Failure Not Retried", func(t *testing.T) {
		fr := &flakyResolver{err: fmt.Errorf("%w: gone", shared.ErrUnknownFeed), n: 5}
		e := NewBatchEngine(fr, BatchOpts{Retries: 3}, nil)

		result, _ := e.ResolveBatch(context.Background(), refs("flaky", "x"), nil)
		if result["flaky:x"].Error != models.UnknownFeed {
			t.Errorf("expected UnknownFeed, got %+v", result["flaky:x"])
		}
		if fr.calls != 1 {
			t.Errorf("expected 1 attempt, got %d", fr.calls)
		}
	})
}

func TestResolveBatch_ContextCancellation(t *testing.T) {
	e, fetcher := newTestEngine(t, BatchOpts{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := refs("feed-a", "a1", "feed-b", "b1", "feed-c", "c1")
	result, err := e.ResolveBatch(ctx, input, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected a complete result, got %d entries", len(result))
	}
	for key, track := range result {
		if track.Error != models.FetchFailure {
			t.Errorf("%s = %+v, want FetchFailure", key, track)
		}
	}
	if fetcher.Total() != 0 {
		t.Errorf("expected no fetches after cancellation, got %d", fetcher.Total())
	}
}

func TestResolveBatch_Waves(t *testing.T) {
	e, _ := newTestEngine(t, BatchOpts{Workers: 2, WaveSize: 1, WaveDelay: 5 * time.Millisecond})
	prog := make(chan ProgressUpdate, 64)

	start := time.Now()
	result, err := e.ResolveBatch(context.Background(), refs("feed-a", "a1", "feed-b", "b1", "feed-c", "c1"), prog)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	close(prog)

	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("expected two inter-wave delays, finished in %s", elapsed)
	}

	counts := map[Phase]int{}
	var last ProgressUpdate
	for u := range prog {
		counts[u.Phase]++
		last = u
	}

	if counts[Partition] != 1 || counts[StartWave] != 3 || counts[ResolveFeed] != 3 || counts[Complete] != 1 {
		t.Errorf("unexpected progress counts %v", counts)
	}
	if last.Phase != Complete || last.Message != result.Summary() {
		t.Errorf("last update should be the summary, got %+v", last)
	}
}

func TestResolveBatch_BoundedWorkers(t *testing.T) {
	sr := &slowResolver{hold: 20 * time.Millisecond}
	e := NewBatchEngine(sr, BatchOpts{Workers: 3}, nil)

	var input []models.RemoteItemReference
	for i := range 24 {
		input = append(input, models.RemoteItemReference{FeedGUID: fmt.Sprintf("feed-%d", i), ItemGUID: "x"})
	}

	result, err := e.ResolveBatch(context.Background(), input, nil)
	if err != nil {
		t.Fatalf("ResolveBatch failed: %v", err)
	}
	if result.Resolved() != 24 {
		t.Errorf("expected 24 resolved, got %d", result.Resolved())
	}

	if sr.peak > 3 {
		t.Errorf("expected at most 3 feeds in flight, saw %d", sr.peak)
	}
	if sr.peak < 2 {
		t.Errorf("expected feeds to run concurrently, peak was %d", sr.peak)
	}
}

func TestResolveBatch_Empty(t *testing.T) {
	e, _ := newTestEngine(t, BatchOpts{})
	result, err := e.ResolveBatch(context.Background(), nil, nil)
	if err != nil || len(result) != 0 {
		t.Errorf("expected empty result, got %v, %v", result, err)
	}
	if result.Summary() != "resolved 0 of 0 tracks" {
		t.Errorf("Summary() = %q", result.Summary())
	}
}
