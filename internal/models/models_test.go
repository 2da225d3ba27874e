package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/v4vx/internal/shared"
)

func TestReference(t *testing.T) {
	t.Run("Key", func(t *testing.T) {
		ref := RemoteItemReference{FeedGUID: "feed", ItemGUID: "item"}
		if got := ref.Key(); got != "feed:item" {
			t.Errorf("Key() = %q, want feed:item", got)
		}
	})

	t.Run("Valid", func(t *testing.T) {
		if (RemoteItemReference{FeedGUID: "f", ItemGUID: " "}).Valid() {
			t.Error("blank item guid should be invalid")
		}
		if !(RemoteItemReference{FeedGUID: "f", ItemGUID: "i"}).Valid() {
			t.Error("complete pair should be valid")
		}
	})
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, NoError},
		{fmt.Errorf("%w: guid x", shared.ErrUnknownFeed), UnknownFeed},
		{fmt.Errorf("%w: no title", shared.ErrCorruptedFeed), CorruptedFeed},
		{fmt.Errorf("%w: item y", shared.ErrEpisodeNotFound), EpisodeNotFound},
		{fmt.Errorf("%w: title", shared.ErrParseFailure), ParseFailure},
		{fmt.Errorf("%w: status 500", shared.ErrFetchFailure), FetchFailure},
		{fmt.Errorf("%w: status 502", shared.ErrAPIRequest), FetchFailure},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	if !FetchFailure.Retryable() || UnknownFeed.Retryable() {
		t.Error("only fetch failures are retryable")
	}
}

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"":         0,
		"245":      245,
		"4:05":     245,
		"01:02:03": 3723,
		"245.7":    245,
		"abc":      0,
		"1:xx":     0,
	}
	for in, want := range tests {
		if got := ParseDuration(in); got != want {
			t.Errorf("ParseDuration(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTrackRecord(t *testing.T) {
	t.Run("legacy ids and durations", func(t *testing.T) {
		data := `[
			{"id": 17, "title": "A", "duration": "3:05"},
			{"id": "track-9", "title": "B", "duration": 200},
			{"id": null, "title": "C", "duration": null}
		]`
		var records []TrackRecord
		if err := json.Unmarshal([]byte(data), &records); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if records[0].ID != "17" || records[0].Duration != 185 {
			t.Errorf("unexpected first record: id=%q duration=%d", records[0].ID, records[0].Duration)
		}
		if records[1].ID != "track-9" || records[1].Duration != 200 {
			t.Errorf("unexpected second record: id=%q duration=%d", records[1].ID, records[1].Duration)
		}
		if records[2].ID != "" {
			t.Errorf("expected null id to read as empty, got %q", records[2].ID)
		}

		out, err := json.Marshal(records[0])
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(out), `"id":17`) {
			t.Errorf("numeric id should be written as a number: %s", out)
		}
	})

	t.Run("AddSource is an ordered set", func(t *testing.T) {
		rec := TrackRecord{Source: "playlist-import, rss-scan"}
		rec.AddSource("rss-scan", "resolver", "")
		rec.AddSource("playlist-import")

		if rec.Source != "playlist-import,rss-scan,resolver" {
			t.Errorf("Source = %q", rec.Source)
		}
	})

	t.Run("Record keeps history monotonic", func(t *testing.T) {
		now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		rec := TrackRecord{}
		rec.Record(now, ActionCreated, "first")
		rec.Record(now.Add(-time.Hour), ActionUpdated, "clock went backwards")

		if len(rec.ModificationHistory) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(rec.ModificationHistory))
		}
		if rec.ModificationHistory[1].Date.Before(rec.ModificationHistory[0].Date) {
			t.Error("history dates must not decrease")
		}
		if !rec.LastModified.Equal(now) {
			t.Errorf("LastModified = %v, want %v", rec.LastModified, now)
		}
	})

	t.Run("Key requires both guids", func(t *testing.T) {
		rec := TrackRecord{FeedGUID: "f"}
		if rec.Key() != "" || rec.HasIdentity() {
			t.Error("record without item guid has no identity")
		}
		rec.ItemGUID = "i"
		if rec.Key() != "f:i" {
			t.Errorf("Key() = %q", rec.Key())
		}
	})
}

func TestMetadata(t *testing.T) {
	data := `{"totalTracks": 2, "lastUpdated": "2025-08-01T10:00:00Z", "lastAssignedId": 40, "importRun": {"by": "scanner"}, "note": "hand edited"}`

	var m Metadata
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if m.TotalTracks != 2 || m.LastAssignedID != 40 {
		t.Errorf("unexpected known fields: %+v", m)
	}
	if len(m.Annotations) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(m.Annotations))
	}

	if err := m.Annotate("lastRunId", "abc"); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var roundTrip map[string]any
	if err := json.Unmarshal(out, &roundTrip); err != nil {
		t.Fatalf("re-unmarshal failed: %v", err)
	}
	for _, key := range []string{"totalTracks", "lastUpdated", "lastAssignedId", "importRun", "note", "lastRunId"} {
		if _, ok := roundTrip[key]; !ok {
			t.Errorf("expected key %q to survive round trip", key)
		}
	}
}
