package repositories

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

func TestRunRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			err := NewRunRepository(db).Create(&models.Run{Kind: "  "})
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			_, err := NewRunRepository(db).Get("nonexistent-id")
			if err == nil || !strings.Contains(err.Error(), "run not found") {
				t.Errorf("expected not found error, got %v", err)
			}
		})
	})

	t.Run("Complete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			err := NewRunRepository(db).Complete(&models.Run{ID: "nonexistent-id"}, time.Now())
			if err == nil || !strings.Contains(err.Error(), "run not found") {
				t.Errorf("expected not found error, got %v", err)
			}
		})
	})
}

func TestResolutionRepositoryErrors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewResolutionRepository(db).Create(&models.Resolution{FeedGUID: "f"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("UnknownRun", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewResolutionRepository(db).Create(&models.Resolution{RunID: "missing", FeedGUID: "f", ItemGUID: "i"})
		if err == nil {
			t.Error("expected foreign key violation for unknown run")
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewResolutionRepository(db).CreateMany(nil); err != nil {
			t.Errorf("expected no error for empty batch, got %v", err)
		}
	})

	t.Run("InvalidSequenceBlock", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := ReserveSequence(db, "resolutions", 0); err == nil {
			t.Error("expected error for empty sequence block")
		}
	})
}
