package reconcile

import (
	"fmt"

	"github.com/desertthunder/v4vx/internal/models"
)

// CleanupOpts selects the destructive passes of [Reconciler.Cleanup].
type CleanupOpts struct {
	// PruneFailed drops failed records that never got an audio URL.
	PruneFailed bool
}

// Sweep collapses duplicates already inside db, then repairs missing or repeated ids.
func (r *Reconciler) Sweep(db *models.Database) MergeResult {
	var res MergeResult
	now := r.now().UTC()
	ids := newIDAllocator(db)
	defer ids.commit(db)

	rows := db.MusicTracks
	alive := make([]bool, len(rows))
	for i := range alive {
		alive[i] = true
	}

	collapse := func(j, i int) {
		merged, retired := r.combine(&rows[j], &rows[i], now)
		rows[j] = merged
		alive[i] = false
		res.DuplicatesMerged++
		res.Removed++
		if retired != "" {
			res.RemovedIDs = append(res.RemovedIDs, retired)
		}
	}

	byKey := make(map[string]int)
	for i := range rows {
		k := rows[i].Key()
		if k == "" {
			continue
		}
		if j, ok := byKey[k]; ok {
			collapse(j, i)
			continue
		}
		byKey[k] = i
	}

	byFuzzy := make(map[string][]int)
	for i := range rows {
		if !alive[i] {
			continue
		}
		fk := fuzzyKey(&rows[i])
		if fk == "" {
			continue
		}
		matched := false
		for _, j := range byFuzzy[fk] {
			if alive[j] && fuzzyCompatible(&rows[j], &rows[i]) {
				collapse(j, i)
				matched = true
				break
			}
		}
		if !matched {
			byFuzzy[fk] = append(byFuzzy[fk], i)
		}
	}

	survivors := make([]models.TrackRecord, 0, len(rows)-res.Removed)
	seen := make(map[models.TrackID]bool, len(rows))
	for i := range rows {
		if !alive[i] {
			continue
		}
		rec := rows[i]
		if rec.ID == "" || seen[rec.ID] {
			old := rec.ID
			rec.ID = ids.next()
			rec.Record(now, models.ActionUpdated, fmt.Sprintf("assigned id #%s (was %s)", rec.ID, idLabel(old)))
			res.UpdatedInPlace++
		}
		seen[rec.ID] = true
		survivors = append(survivors, rec)
	}
	db.MusicTracks = survivors

	if res.Changed() {
		r.logger.Info("sweep complete", "merged", res.DuplicatesMerged, "reassigned", res.UpdatedInPlace)
	}
	return res
}

// Cleanup sweeps db and, when asked, prunes records that can never play.
func (r *Reconciler) Cleanup(db *models.Database, opts CleanupOpts) MergeResult {
	res := r.Sweep(db)
	if !opts.PruneFailed {
		return res
	}

	kept := db.MusicTracks[:0]
	for _, rec := range db.MusicTracks {
		if rec.ResolutionStatus == models.StatusFailed && !PlausibleAudioURL(rec.AudioURL) {
			r.logger.Debug("pruning failed record", "id", rec.ID, "key", rec.Key(), "title", rec.Title)
			res.Removed++
			if rec.ID != "" {
				res.RemovedIDs = append(res.RemovedIDs, rec.ID)
			}
			continue
		}
		kept = append(kept, rec)
	}
	db.MusicTracks = kept

	r.logger.Info("cleanup complete", "removed", res.Removed, "remaining", len(db.MusicTracks))
	return res
}
