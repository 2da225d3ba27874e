package store

import (
	"github.com/desertthunder/v4vx/internal/models"
)

// Stats summarizes a store document.
type Stats struct {
	Total        int            `json:"total"`
	Resolved     int            `json:"resolved"`
	Pending      int            `json:"pending"`
	Failed       int            `json:"failed"`
	WithIdentity int            `json:"withIdentity"`
	WithAudio    int            `json:"withAudio"`
	Sources      map[string]int `json:"sources"`
}

// Summarize counts records by status, identity and provenance tag.
func Summarize(db *models.Database) Stats {
	st := Stats{Total: len(db.MusicTracks), Sources: make(map[string]int)}
	for i := range db.MusicTracks {
		rec := &db.MusicTracks[i]
		switch rec.ResolutionStatus {
		case models.StatusResolved:
			st.Resolved++
		case models.StatusFailed:
			st.Failed++
		default:
			st.Pending++
		}
		if rec.HasIdentity() {
			st.WithIdentity++
		}
		if rec.AudioURL != "" {
			st.WithAudio++
		}
		for _, tag := range models.SplitSources(rec.Source) {
			st.Sources[tag]++
		}
	}
	return st
}
