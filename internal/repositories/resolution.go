package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

// ResolutionRepository persists per-reference outcomes.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

const insertResolution = `
	INSERT INTO resolutions (id, sequence, run_id, feed_guid, item_guid, success, error_kind, title, resolved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts a single resolution
func (r *ResolutionRepository) Create(res *models.Resolution) error {
	return r.CreateMany([]*models.Resolution{res})
}

// CreateMany inserts resolutions in one transaction with a contiguous block of sequences
func (r *ResolutionRepository) CreateMany(items []*models.Resolution) error {
	if len(items) == 0 {
		return nil
	}
	for _, res := range items {
		if res.RunID == "" || res.FeedGUID == "" {
			return fmt.Errorf("%w: resolution requires run and feed guid", shared.ErrInvalidInput)
		}
	}

	first, err := ReserveSequence(r.db, "resolutions", len(items))
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertResolution)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range items {
		res.ID = shared.GenerateID()
		res.Sequence = first + i
		if res.ResolvedAt.IsZero() {
			res.ResolvedAt = time.Now().UTC()
		}

		_, err := stmt.Exec(
			res.ID,
			res.Sequence,
			res.RunID,
			res.FeedGUID,
			res.ItemGUID,
			res.Success,
			string(res.ErrorKind),
			res.Title,
			res.ResolvedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert resolution: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolutions: %w", err)
	}
	return nil
}

// ListByRun returns every resolution of a run in insertion order
func (r *ResolutionRepository) ListByRun(runID string) ([]*models.Resolution, error) {
	query := `
		SELECT id, sequence, run_id, feed_guid, item_guid, success, error_kind, title, resolved_at
		FROM resolutions
		WHERE run_id = ?
		ORDER BY sequence ASC
	`
	return r.query(query, runID)
}

// Failures returns the most recent failed resolutions, newest first
func (r *ResolutionRepository) Failures(limit int) ([]*models.Resolution, error) {
	query := `
		SELECT id, sequence, run_id, feed_guid, item_guid, success, error_kind, title, resolved_at
		FROM resolutions
		WHERE success = 0
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ForReference returns the outcome history of one reference, newest first
func (r *ResolutionRepository) ForReference(feedGUID, itemGUID string) ([]*models.Resolution, error) {
	query := `
		SELECT id, sequence, run_id, feed_guid, item_guid, success, error_kind, title, resolved_at
		FROM resolutions
		WHERE feed_guid = ? AND item_guid = ?
		ORDER BY sequence DESC
	`
	return r.query(query, feedGUID, itemGUID)
}

func (r *ResolutionRepository) query(query string, args ...any) ([]*models.Resolution, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var out []*models.Resolution
	for rows.Next() {
		var res models.Resolution
		var kind string
		err := rows.Scan(
			&res.ID,
			&res.Sequence,
			&res.RunID,
			&res.FeedGUID,
			&res.ItemGUID,
			&res.Success,
			&kind,
			&res.Title,
			&res.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		res.ErrorKind = models.ErrorKind(kind)
		out = append(out, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolutions: %w", err)
	}
	return out, nil
}
