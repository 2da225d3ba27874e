package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/feedcache"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/services"
	"github.com/desertthunder/v4vx/internal/shared"
)

// UnknownArtist is the last artist fallback.
const UnknownArtist = "Unknown Artist"

// Opts configures a [Resolver]. Only Fetcher is required; a nil Directory limits the chain
// to the seed table.
type Opts struct {
	Seed      map[string]string
	Directory services.FeedDirectory
	Fetcher   services.Fetcher
	Cache     *feedcache.Cache
	Extractor Extractor
	Logger    *log.Logger
}

// Resolver resolves remote item references.
type Resolver struct {
	chain     Chain
	directory services.FeedDirectory
	fetcher   services.Fetcher
	cache     *feedcache.Cache
	extractor Extractor
	logger    *log.Logger
}

// New builds a resolver with the seed → discovered → directory chain.
func New(opts Opts) *Resolver {
	if opts.Fetcher == nil {
		opts.Fetcher = services.NewFeedFetcher(nil, "", 0)
	}
	if opts.Cache == nil {
		opts.Cache = feedcache.New(feedcache.DefaultTTL)
	}
	if opts.Extractor == nil {
		opts.Extractor = RegexExtractor{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	chain := Chain{NewSeedStage(opts.Seed)}
	if opts.Directory != nil {
		chain = append(chain, NewDiscoveredStage(opts.Directory), NewDirectoryStage(opts.Directory))
	}

	return &Resolver{
		chain:     chain,
		directory: opts.Directory,
		fetcher:   opts.Fetcher,
		cache:     opts.Cache,
		extractor: opts.Extractor,
		logger:    shared.WithLogger(opts.Logger, "component", "resolver"),
	}
}

// Stages returns the names of the location stages in order.
func (r *Resolver) Stages() []string {
	names := make([]string, len(r.chain))
	for i, s := range r.chain {
		names[i] = s.Name()
	}
	return names
}

// Resolve resolves a single reference. Failures are reported in the returned track.
func (r *Resolver) Resolve(ctx context.Context, feedGUID, itemGUID string) models.ResolvedTrack {
	doc, err := r.Feed(ctx, feedGUID)
	if err != nil {
		return models.Failed(models.KindOf(err))
	}
	return r.Item(doc, itemGUID)
}

// Feed locates, fetches and loads the feed for feedGUID.
func (r *Resolver) Feed(ctx context.Context, feedGUID string) (Document, error) {
	feedURL, stage, err := r.chain.Locate(ctx, feedGUID)
	if err != nil {
		r.logger.Debug("feed not located", "guid", feedGUID, "stage", stage, "error", err)
		return nil, err
	}
	r.logger.Debug("feed located", "guid", feedGUID, "stage", stage, "url", feedURL)

	content, err := r.content(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	doc, err := r.extractor.Load(content)
	if err != nil {
		return nil, err
	}

	ch := doc.Channel()
	if strings.TrimSpace(ch.Title) == "" && ch.Items == 0 {
		return nil, fmt.Errorf("%w: %s has no title and no items", shared.ErrCorruptedFeed, feedURL)
	}
	return doc, nil
}

// Item extracts itemGUID from an already loaded feed.
func (r *Resolver) Item(doc Document, itemGUID string) models.ResolvedTrack {
	it, ok := doc.Item(itemGUID)
	if !ok {
		return models.Failed(models.EpisodeNotFound)
	}
	if it.Title == "" {
		return models.Failed(models.ParseFailure)
	}

	ch := doc.Channel()
	return models.ResolvedTrack{
		Success:     true,
		Title:       it.Title,
		Artist:      firstNonEmpty(it.Author, ch.Author, ch.Title, UnknownArtist),
		Image:       firstNonEmpty(it.Image, ch.Image),
		AudioURL:    it.AudioURL,
		Duration:    models.ParseDuration(it.Duration),
		FeedTitle:   ch.Title,
		PublishDate: it.PublishDate,
	}
}

// ClearCache drops every cached feed and every discovered directory mapping.
func (r *Resolver) ClearCache() {
	r.cache.Clear()
	if r.directory != nil {
		r.directory.Forget()
	}
}

// CacheLen returns the number of cached feeds.
func (r *Resolver) CacheLen() int {
	return r.cache.Len()
}

func (r *Resolver) content(ctx context.Context, feedURL string) (string, error) {
	if content, ok := r.cache.Get(feedURL); ok {
		r.logger.Debug("feed cache hit", "url", feedURL)
		return content, nil
	}

	r.logger.Debug("feed cache miss", "url", feedURL)
	content, err := r.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		return "", err
	}
	r.cache.Put(feedURL, content)
	return content, nil
}
