package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/v4vx/internal/services"
	"github.com/desertthunder/v4vx/internal/shared"
)

// ErrPass is returned by a [Stage] that has no answer for a GUID.
var ErrPass = errors.New("pass to next stage")

// Stage is one step of the feed location chain.
type Stage interface {
	Name() string
	Locate(ctx context.Context, feedGUID string) (string, error)
}

// SeedStage serves the static seed table.
type SeedStage struct {
	feeds map[string]string
}

// NewSeedStage copies seed so later changes to the caller's map are not observed.
func NewSeedStage(seed map[string]string) *SeedStage {
	feeds := make(map[string]string, len(seed))
	for guid, u := range seed {
		guid, u = strings.TrimSpace(guid), strings.TrimSpace(u)
		if guid != "" && u != "" {
			feeds[guid] = u
		}
	}
	return &SeedStage{feeds: feeds}
}

func (s *SeedStage) Name() string { return "seed" }

func (s *SeedStage) Locate(_ context.Context, feedGUID string) (string, error) {
	if u, ok := s.feeds[feedGUID]; ok {
		return u, nil
	}
	return "", ErrPass
}

// Len returns the number of seeded feeds.
func (s *SeedStage) Len() int { return len(s.feeds) }

// DiscoveredStage serves URLs the directory has already resolved.
type DiscoveredStage struct {
	directory services.FeedDirectory
}

func NewDiscoveredStage(d services.FeedDirectory) *DiscoveredStage {
	return &DiscoveredStage{directory: d}
}

func (s *DiscoveredStage) Name() string { return "discovered" }

func (s *DiscoveredStage) Locate(_ context.Context, feedGUID string) (string, error) {
	if u, ok := s.directory.Cached(feedGUID); ok {
		return u, nil
	}
	return "", ErrPass
}

// DirectoryStage queries the directory API. It never passes: a miss is terminal.
type DirectoryStage struct {
	directory services.FeedDirectory
}

func NewDirectoryStage(d services.FeedDirectory) *DirectoryStage {
	return &DirectoryStage{directory: d}
}

func (s *DirectoryStage) Name() string { return "directory" }

func (s *DirectoryStage) Locate(ctx context.Context, feedGUID string) (string, error) {
	return s.directory.Lookup(ctx, feedGUID)
}

// Chain runs stages in order until one answers.
type Chain []Stage

// Locate returns the feed URL and the name of the stage that produced it.
func (c Chain) Locate(ctx context.Context, feedGUID string) (string, string, error) {
	feedGUID = strings.TrimSpace(feedGUID)
	if feedGUID == "" {
		return "", "", fmt.Errorf("%w: empty feed guid", shared.ErrUnknownFeed)
	}

	for _, stage := range c {
		u, err := stage.Locate(ctx, feedGUID)
		switch {
		case errors.Is(err, ErrPass):
			continue
		case err != nil:
			return "", stage.Name(), err
		default:
			return u, stage.Name(), nil
		}
	}
	return "", "", fmt.Errorf("%w: %s", shared.ErrUnknownFeed, feedGUID)
}
