package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/v4vx/internal/feedcache"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/reconcile"
	"github.com/desertthunder/v4vx/internal/repositories"
	"github.com/desertthunder/v4vx/internal/resolver"
	"github.com/desertthunder/v4vx/internal/services"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/store"
	"github.com/desertthunder/v4vx/internal/tasks"
)

// preflight rejects runs that cannot succeed before any network or store work starts.
func (r *Runner) preflight(config *shared.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	return store.CheckWritable(config.Store.Path)
}

func (r *Runner) newResolver(config *shared.Config) (*resolver.Resolver, error) {
	extractor, err := resolver.NewExtractor(config.Feeds.Extractor)
	if err != nil {
		return nil, err
	}

	directory := r.directory
	if directory == nil {
		opts := services.DirectoryOpts{
			BaseURL:   config.Directory.BaseURL,
			APIKey:    config.Directory.APIKey,
			APISecret: config.Directory.APISecret,
			UserAgent: config.Directory.UserAgent,
			RateLimit: config.Directory.RateLimit,
			Logger:    r.logger,
		}
		if config.Directory.TimeoutSeconds > 0 {
			opts.HTTPClient = &http.Client{Timeout: time.Duration(config.Directory.TimeoutSeconds) * time.Second}
		}
		client, err := services.NewDirectoryClient(opts)
		if err != nil {
			return nil, err
		}
		directory = client
	}

	fetcher := r.fetcher
	if fetcher == nil {
		fetcher = services.NewFeedFetcher(r.httpClient, config.Directory.UserAgent, config.Feeds.FetchTimeout())
	}

	return resolver.New(resolver.Opts{
		Seed:      config.Feeds.Seed,
		Directory: directory,
		Fetcher:   fetcher,
		Cache:     feedcache.New(config.Feeds.CacheTTL()),
		Extractor: extractor,
		Logger:    r.logger,
	}), nil
}

func (r *Runner) newEngine(config *shared.Config, res tasks.FeedResolver) *tasks.BatchEngine {
	return tasks.NewBatchEngine(res, tasks.BatchOpts{
		Workers:    config.Batch.Workers,
		WaveSize:   config.Batch.WaveSize,
		WaveDelay:  config.Batch.WaveDelay(),
		Retries:    config.Batch.Retries,
		RetryDelay: config.Batch.RetryDelay(),
	}, r.logger)
}

func (r *Runner) newReconciler(config *shared.Config) *reconcile.Reconciler {
	return reconcile.New(reconcile.Opts{
		Scorer: reconcile.NewScorer(config.Scoring),
		Now:    r.now,
		Logger: r.logger,
	})
}

// openLedger opens and migrates the resolution ledger. An empty database path disables it and
// returns a nil ledger.
func (r *Runner) openLedger(config *shared.Config) (*repositories.Ledger, func(), error) {
	if config.Database.Path == "" {
		return nil, func() {}, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repositories.NewLedger(db), func() { db.Close() }, nil
}

// record stores a finished run in the ledger, if one is configured. Ledger failures never fail
// the run itself.
func (r *Runner) record(config *shared.Config, kind string, started time.Time, results map[string]models.ResolvedTrack) *models.Run {
	ledger, closeLedger, err := r.openLedger(config)
	if err != nil {
		r.logger.Warn("ledger unavailable", "error", err)
		return nil
	}
	defer closeLedger()
	if ledger == nil {
		return nil
	}

	run, err := ledger.Record(kind, started, r.now().UTC(), results)
	if err != nil {
		r.logger.Warn("failed to record run", "error", err)
		return nil
	}
	r.logger.Debug("run recorded", "run", run.ID, "sequence", run.Sequence)
	return run
}
