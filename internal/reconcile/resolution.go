package reconcile

import (
	"strings"
	"time"

	"github.com/desertthunder/v4vx/internal/models"
)

// FromResolution converts a resolution into a partial record ready for [Reconciler.Merge].
func FromResolution(ref models.RemoteItemReference, track models.ResolvedTrack, source string, now time.Time) models.TrackRecord {
	rec := models.TrackRecord{
		FeedGUID:         ref.FeedGUID,
		ItemGUID:         ref.ItemGUID,
		Source:           source,
		ResolutionStatus: models.StatusFailed,
		LastModified:     now,
	}
	if !track.Success {
		return rec
	}

	rec.Title = track.Title
	rec.Artist = track.Artist
	rec.AudioURL = track.AudioURL
	rec.Image = track.Image
	rec.Duration = models.Seconds(track.Duration)
	rec.PublishDate = track.PublishDate
	rec.FeedTitle = track.FeedTitle
	rec.ResolutionStatus = models.StatusResolved
	return rec
}

// FromBatch converts every entry of a batch result keyed by each input's own "feedGuid:itemGuid".
// Records carry trimmed GUIDs, so inputs differing only in whitespace yield one record.
func FromBatch(refs []models.RemoteItemReference, results map[string]models.ResolvedTrack, source string, now time.Time) []models.TrackRecord {
	seen := make(map[string]bool, len(refs))
	out := make([]models.TrackRecord, 0, len(refs))
	for _, ref := range refs {
		track, ok := results[ref.Key()]
		ref.FeedGUID = strings.TrimSpace(ref.FeedGUID)
		ref.ItemGUID = strings.TrimSpace(ref.ItemGUID)
		key := ref.Key()
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, FromResolution(ref, track, source, now))
	}
	return out
}
