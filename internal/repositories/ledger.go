package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
)

// Ledger records complete runs across both repositories.
type Ledger struct {
	Runs        *RunRepository
	Resolutions *ResolutionRepository
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		Runs:        NewRunRepository(db),
		Resolutions: NewResolutionRepository(db),
	}
}

// Record stores a run and one resolution per result entry. Keys are "feedGuid:itemGuid"; the
// feed GUID never contains a colon, so the key is split at the first one.
func (l *Ledger) Record(kind string, started, finished time.Time, results map[string]models.ResolvedTrack) (*models.Run, error) {
	run := &models.Run{Kind: kind, StartedAt: started, Total: len(results)}
	if err := l.Runs.Create(run); err != nil {
		return nil, err
	}

	items := make([]*models.Resolution, 0, len(results))
	for key, track := range results {
		feed, item, _ := strings.Cut(key, ":")
		if track.Success {
			run.Resolved++
		} else {
			run.Failed++
		}
		items = append(items, &models.Resolution{
			RunID:      run.ID,
			FeedGUID:   feed,
			ItemGUID:   item,
			Success:    track.Success,
			ErrorKind:  track.Error,
			Title:      track.Title,
			ResolvedAt: finished,
		})
	}

	if err := l.Resolutions.CreateMany(items); err != nil {
		return run, fmt.Errorf("failed to record resolutions: %w", err)
	}
	if err := l.Runs.Complete(run, finished); err != nil {
		return run, err
	}
	return run, nil
}
