package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/reconcile"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/store"
	"github.com/desertthunder/v4vx/internal/ui"
	"github.com/urfave/cli/v3"
)

// readRecords accepts a bare array of records or a store document.
func readRecords(path string) ([]models.TrackRecord, error) {
	var raw json.RawMessage
	if err := readJSONFile(path, &raw); err != nil {
		return nil, err
	}

	var records []models.TrackRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}

	var doc models.Database
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s holds neither a record array nor a store document", shared.ErrInvalidInput, path)
	}
	return doc.MusicTracks, nil
}

// StoreMerge merges --input into the configured store.
func (r *Runner) StoreMerge(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := store.CheckWritable(config.Store.Path); err != nil {
		return err
	}

	records, err := readRecords(cmd.String("input"))
	if err != nil {
		return err
	}

	source := cmd.String("source")
	if source == "" {
		source = config.Store.Source
	}
	for i := range records {
		if records[i].Source == "" {
			records[i].Source = source
		}
	}

	r.logger.Info("merging records", "count", len(records), "store", config.Store.Path)
	applied, err := r.newReconciler(config).Apply(ctx, config.Store.Path, records, reconcile.ApplyOpts{Source: source})
	if err != nil {
		return err
	}
	return r.writePlainln("%s", ui.RenderApply(applied))
}

// StoreCleanup sweeps duplicates out of the configured store.
func (r *Runner) StoreCleanup(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := store.CheckWritable(config.Store.Path); err != nil {
		return err
	}

	applied, err := r.newReconciler(config).Apply(ctx, config.Store.Path, nil, reconcile.ApplyOpts{
		Source:       "cleanup",
		PruneFailed:  cmd.Bool("prune-failed"),
		ForceRewrite: cmd.Bool("force"),
	})
	if err != nil {
		return err
	}
	return r.writePlainln("%s", ui.RenderApply(applied))
}

// StoreStats prints a summary of the configured store.
func (r *Runner) StoreStats(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	st := store.New(config.Store.Path, store.WithLogger(r.logger))
	db, err := st.Load()
	if err != nil {
		return err
	}
	stats := store.Summarize(db)

	backups, err := st.Backups()
	if err != nil {
		r.logger.Warn("failed to list backups", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			store.Stats
			Path        string    `json:"path"`
			LastUpdated time.Time `json:"lastUpdated"`
			Backups     []string  `json:"backups"`
		}{stats, config.Store.Path, db.Metadata.LastUpdated, backups}, true)
	}

	r.writePlainln("%s", ui.RenderStats(config.Store.Path, stats))
	if !db.Metadata.LastUpdated.IsZero() {
		r.writePlainln("Last updated: %s", db.Metadata.LastUpdated.Format(time.RFC3339))
	}
	return r.writePlainln("Backups: %d", len(backups))
}
