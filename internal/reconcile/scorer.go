package reconcile

import (
	"net/url"
	"strings"

	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

var placeholders = map[string]bool{
	"":               true,
	"unknown":        true,
	"unknown artist": true,
	"unknown album":  true,
	"unknown title":  true,
	"untitled":       true,
	"n/a":            true,
	"tbd":            true,
	"null":           true,
	"undefined":      true,
}

// IsPlaceholder reports whether s carries no real information.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// PlausibleAudioURL reports whether s looks like a fetchable http(s) URL.
func PlausibleAudioURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" && u.Path != "" && u.Path != "/"
}

// DefaultWeights mirrors the [scoring] section of the example config.
func DefaultWeights() shared.ScoringConfig {
	return shared.ScoringConfig{
		Title:       2,
		Artist:      2,
		Album:       1,
		AudioURL:    3,
		Image:       1,
		Duration:    1,
		PublishDate: 1,
		FeedTitle:   1,
		Resolved:    2,
	}
}

// Scorer rates how complete a record is.
type Scorer struct {
	w shared.ScoringConfig
}

// NewScorer creates a scorer. All-zero weights select [DefaultWeights].
func NewScorer(w shared.ScoringConfig) Scorer {
	if w == (shared.ScoringConfig{}) {
		w = DefaultWeights()
	}
	return Scorer{w: w}
}

// Weights returns the scorer's weights.
func (s Scorer) Weights() shared.ScoringConfig { return s.w }

// Score returns the completeness score of rec.
func (s Scorer) Score(rec *models.TrackRecord) int {
	score := 0
	if !IsPlaceholder(rec.Title) {
		score += s.w.Title
	}
	if !IsPlaceholder(rec.Artist) {
		score += s.w.Artist
	}
	if !IsPlaceholder(rec.Album) {
		score += s.w.Album
	}
	if PlausibleAudioURL(rec.AudioURL) {
		score += s.w.AudioURL
	}
	if strings.TrimSpace(rec.Image) != "" {
		score += s.w.Image
	}
	if rec.Duration > 0 {
		score += s.w.Duration
	}
	if strings.TrimSpace(rec.PublishDate) != "" {
		score += s.w.PublishDate
	}
	if ft := strings.TrimSpace(rec.FeedTitle); len(ft) > 2 && !IsPlaceholder(ft) {
		score += s.w.FeedTitle
	}
	if rec.ResolutionStatus == models.StatusResolved {
		score += s.w.Resolved
	}
	return score
}
