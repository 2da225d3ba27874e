package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/resolver"
	"github.com/desertthunder/v4vx/internal/shared"
)

const (
	defaultWorkers  = 10
	maxWorkers      = 15
	defaultWaveSize = 50
)

// FeedResolver is the part of [resolver.Resolver] the batch engine needs.
type FeedResolver interface {
	Feed(ctx context.Context, feedGUID string) (resolver.Document, error)
	Item(doc resolver.Document, itemGUID string) models.ResolvedTrack
}

// BatchResult maps "feedGuid:itemGuid" to its resolution.
type BatchResult map[string]models.ResolvedTrack

// Resolved counts successful entries.
func (r BatchResult) Resolved() int {
	n := 0
	for _, t := range r {
		if t.Success {
			n++
		}
	}
	return n
}

// Failures counts failed entries per error kind.
func (r BatchResult) Failures() map[models.ErrorKind]int {
	out := make(map[models.ErrorKind]int)
	for _, t := range r {
		if !t.Success {
			out[t.Error]++
		}
	}
	return out
}

// Keys returns the result keys in sorted order.
func (r BatchResult) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary renders "resolved X of N tracks".
func (r BatchResult) Summary() string {
	return fmt.Sprintf("resolved %d of %d tracks", r.Resolved(), len(r))
}

// BatchOpts configures a [BatchEngine].
type BatchOpts struct {
	Workers    int           // Concurrent feeds per wave (default: 10, max: 15)
	WaveSize   int           // Feeds per wave (default: 50)
	WaveDelay  time.Duration // Pause between waves
	Retries    int           // Extra attempts for retryable feed failures
	RetryDelay time.Duration // Pause between attempts
}

// BatchEngine resolves references in feed-grouped waves.
type BatchEngine struct {
	resolver FeedResolver
	opts     BatchOpts
	logger   *log.Logger
}

// NewBatchEngine creates a batch engine, clamping opts to sane bounds.
func NewBatchEngine(r FeedResolver, opts BatchOpts, logger *log.Logger) *BatchEngine {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.WaveSize <= 0 {
		opts.WaveSize = defaultWaveSize
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if logger == nil {
		logger = shared.NopLogger()
	}

	return &BatchEngine{
		resolver: r,
		opts:     opts,
		logger:   shared.WithLogger(logger, "component", "batch"),
	}
}

// Opts returns the effective options.
func (e *BatchEngine) Opts() BatchOpts {
	return e.opts
}

// sendProgress sends a progress update to the channel if it's not nil.
// Uses non-blocking send to prevent deadlocks if receiver is slow.
func (e *BatchEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
