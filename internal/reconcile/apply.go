package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/desertthunder/v4vx/internal/store"
)

// ApplyOpts controls a store run.
type ApplyOpts struct {
	RunID        string // Recorded in metadata.lastRun (default: new uuid)
	Source       string // Provenance tag recorded in metadata.lastRun
	PruneFailed  bool   // Also drop failed records without audio
	ForceRewrite bool   // Save and back up even when nothing changed
}

// ApplyResult describes a completed store run.
type ApplyResult struct {
	MergeResult
	RunID  string `json:"runId"`
	Backup string `json:"backup,omitempty"`
	Saved  bool   `json:"saved"`
	Total  int    `json:"total"`
}

type runAnnotation struct {
	ID     string      `json:"id"`
	Source string      `json:"source,omitempty"`
	At     time.Time   `json:"at"`
	Result MergeResult `json:"result"`
}

// Apply merges incoming into the store at path under the store lock. A run that removes any
// existing record, or a forced rewrite, is preceded by a backup; if the backup fails nothing
// is written.
func (r *Reconciler) Apply(ctx context.Context, path string, incoming []models.TrackRecord, opts ApplyOpts) (*ApplyResult, error) {
	if opts.RunID == "" {
		opts.RunID = shared.GenerateID()
	}

	st := store.New(path, store.WithClock(r.now), store.WithLogger(r.logger))
	unlock, err := st.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	db, err := st.Load()
	if err != nil {
		return nil, err
	}

	res := &ApplyResult{RunID: opts.RunID}
	res.MergeResult = r.Merge(db, incoming)
	res.add(r.Cleanup(db, CleanupOpts{PruneFailed: opts.PruneFailed}))
	res.Total = len(db.MusicTracks)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if !res.Changed() && !opts.ForceRewrite {
		r.logger.Info("store unchanged", "path", path, "tracks", res.Total)
		return res, nil
	}

	if res.Removed > 0 || opts.ForceRewrite {
		backup, err := st.Backup()
		if err != nil {
			return res, fmt.Errorf("%w: backup required before rewrite: %v", shared.ErrStoreUnwritable, err)
		}
		res.Backup = backup
	}

	if err := db.Metadata.Annotate("lastRun", runAnnotation{
		ID:     opts.RunID,
		Source: opts.Source,
		At:     r.now().UTC(),
		Result: res.MergeResult,
	}); err != nil {
		return res, err
	}

	if err := st.Save(db); err != nil {
		return res, err
	}
	res.Saved = true

	r.logger.Info("store updated", "path", path, "run", opts.RunID, "summary", res.MergeResult.String(), "backup", res.Backup)
	return res, nil
}
