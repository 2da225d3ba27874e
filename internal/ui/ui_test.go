package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/reconcile"
	"github.com/desertthunder/v4vx/internal/store"
	"github.com/desertthunder/v4vx/internal/tasks"
)

func assertContains(t *testing.T, output string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(output, w) {
			t.Errorf("output missing %q, got:\n%s", w, output)
		}
	}
}

func TestRenderBatch(t *testing.T) {
	t.Run("All Resolved", func(t *testing.T) {
		out := RenderBatch(tasks.BatchResult{"f:a": {Success: true, Title: "A"}})
		assertContains(t, out, "Batch Complete!", "Success rate: 1/1 (100.0%)")
		if strings.Contains(out, "Failed") {
			t.Errorf("no failure section expected, got:\n%s", out)
		}
	})

	t.Run("With Failures", func(t *testing.T) {
		out := RenderBatch(tasks.BatchResult{
			"f:a": {Success: true},
			"f:b": models.Failed(models.EpisodeNotFound),
			"g:c": models.Failed(models.UnknownFeed),
			"g:d": models.Failed(models.UnknownFeed),
		})
		assertContains(t, out,
			"Success rate: 1/4 (25.0%)",
			"Failed to resolve 3 references:",
			"UnknownFeed: 2",
			"EpisodeNotFound: 1",
			"• f:b (EpisodeNotFound)",
		)
	})

	t.Run("Empty", func(t *testing.T) {
		assertContains(t, RenderBatch(tasks.BatchResult{}), "Success rate: 0/0 (0.0%)")
	})
}

func TestRenderTrack(t *testing.T) {
	ref := models.RemoteItemReference{FeedGUID: "f", ItemGUID: "i"}

	t.Run("Success", func(t *testing.T) {
		out := RenderTrack(ref, models.ResolvedTrack{
			Success:   true,
			Title:     "Song A",
			Artist:    "The Doerfels",
			AudioURL:  "https://x/a.mp3",
			Duration:  245,
			FeedTitle: "Feed",
		})
		assertContains(t, out, "The Doerfels - Song A", "https://x/a.mp3", "4:05", "Feed")
		if strings.Contains(out, "Image:") {
			t.Error("empty fields should be skipped")
		}
	})

	t.Run("Failure", func(t *testing.T) {
		assertContains(t, RenderTrack(ref, models.Failed(models.UnknownFeed)), "f:i: UnknownFeed")
	})
}

func TestRenderApply(t *testing.T) {
	out := RenderApply(&reconcile.ApplyResult{
		MergeResult: reconcile.MergeResult{Added: 2, DuplicatesMerged: 1},
		RunID:       "run-1",
		Backup:      "/tmp/tracks.json.backup-1",
		Saved:       true,
		Total:       7,
	})
	assertContains(t, out, "Store updated", "2 added", "1 duplicates merged", "Tracks: 7", "Backup: /tmp/tracks.json.backup-1")

	unchanged := RenderApply(&reconcile.ApplyResult{RunID: "run-2"})
	assertContains(t, unchanged, "Store unchanged")
	if strings.Contains(unchanged, "Backup:") {
		t.Error("no backup line expected without a backup")
	}
}

func TestRenderStats(t *testing.T) {
	out := RenderStats("tracks.json", store.Stats{Total: 3, Resolved: 2, Pending: 1, Sources: map[string]int{"rss": 2, "api": 1}})
	assertContains(t, out, "tracks.json", "Tracks:    3", "Resolved:  2", "api: 1", "rss: 2")
	if strings.Index(out, "api: 1") > strings.Index(out, "rss: 2") {
		t.Error("sources should be sorted")
	}
}

func TestRenderHistory(t *testing.T) {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	done := started.Add(1500 * time.Millisecond)

	t.Run("Runs", func(t *testing.T) {
		out := RenderRuns([]*models.Run{
			{Sequence: 2, Kind: "batch", Total: 4, Resolved: 3, Failed: 1, StartedAt: started, CompletedAt: &done},
			{Sequence: 1, Kind: "resolve", Total: 1, StartedAt: started},
		})
		assertContains(t, out, "#2", "3/4 resolved, 1 failed (1.5s)", "#1", "(running)")
		assertContains(t, RenderRuns(nil), "No runs recorded")
	})

	t.Run("Failures", func(t *testing.T) {
		out := RenderFailures([]*models.Resolution{{FeedGUID: "f", ItemGUID: "i", ErrorKind: models.FetchFailure, ResolvedAt: started}})
		assertContains(t, out, "FetchFailure", "f:i")
		assertContains(t, RenderFailures(nil), "No failures recorded")
	})
}

func TestWatchProgress(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan tasks.ProgressUpdate, 4)
	done := WatchProgress(&buf, ch)

	ch <- tasks.ProgressUpdate{Phase: tasks.Partition, Message: "Grouped 3 references into 2 feeds"}
	ch <- tasks.ProgressUpdate{Phase: tasks.ResolveFeed, Step: 1, Total: 2, Message: "Resolved 2/2 items from feed f"}
	ch <- tasks.ProgressUpdate{Phase: tasks.FeedFailed, Step: 2, Total: 2, Message: "Feed g failed"}
	ch <- tasks.ProgressUpdate{Phase: tasks.Complete, Message: "resolved 2 of 3 tracks"}
	close(ch)
	<-done

	out := buf.String()
	assertContains(t, out, "Grouped 3 references", "[1/2] Resolved 2/2 items", "[2/2] Feed g failed", "resolved 2 of 3 tracks")
	if n := strings.Count(out, "\n"); n != 4 {
		t.Errorf("expected 4 lines, got %d", n)
	}
}
