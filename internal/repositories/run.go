package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

// RunRepository persists ledger runs.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	if strings.TrimSpace(run.Kind) == "" {
		return fmt.Errorf("%w: run kind is required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.ID = shared.GenerateID()
	run.Sequence = sequence

	query := `
		INSERT INTO runs (id, sequence, kind, total, resolved, failed, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = *run.CompletedAt
	}

	_, err = r.db.Exec(query,
		run.ID,
		run.Sequence,
		run.Kind,
		run.Total,
		run.Resolved,
		run.Failed,
		run.StartedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Complete stores final counts and marks the run finished
func (r *RunRepository) Complete(run *models.Run, at time.Time) error {
	query := `
		UPDATE runs
		SET total = ?, resolved = ?, failed = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, run.Total, run.Resolved, run.Failed, at, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}

	run.CompletedAt = &at
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `
		SELECT id, sequence, kind, total, resolved, failed, started_at, completed_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

// List returns the most recent runs, newest first. A non-positive limit returns all runs.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	query := `
		SELECT id, sequence, kind, total, resolved, failed, started_at, completed_at
		FROM runs
		ORDER BY sequence DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var run models.Run
	var completedAt sql.NullTime

	err := s.Scan(
		&run.ID,
		&run.Sequence,
		&run.Kind,
		&run.Total,
		&run.Resolved,
		&run.Failed,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}
