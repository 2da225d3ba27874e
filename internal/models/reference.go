package models

import (
	"errors"
	"strconv"
	"strings"

	"github.com/desertthunder/v4vx/internal/shared"
)

// RemoteItemReference identifies a track hosted in another feed.
type RemoteItemReference struct {
	FeedGUID string `json:"feedGuid"`
	ItemGUID string `json:"itemGuid"`
}

// Key returns the "feedGuid:itemGuid" form used to key batch results and the store identity index.
func (r RemoteItemReference) Key() string {
	return ReferenceKey(r.FeedGUID, r.ItemGUID)
}

// Valid reports whether both halves of the pair are present.
func (r RemoteItemReference) Valid() bool {
	return strings.TrimSpace(r.FeedGUID) != "" && strings.TrimSpace(r.ItemGUID) != ""
}

// ReferenceKey joins a feed and item GUID into a result key.
func ReferenceKey(feedGUID, itemGUID string) string {
	return feedGUID + ":" + itemGUID
}

// ErrorKind classifies a per-reference resolution failure.
type ErrorKind string

const (
	NoError         ErrorKind = ""
	UnknownFeed     ErrorKind = "UnknownFeed"
	FetchFailure    ErrorKind = "FetchFailure"
	EpisodeNotFound ErrorKind = "EpisodeNotFound"
	ParseFailure    ErrorKind = "ParseFailure"
	CorruptedFeed   ErrorKind = "CorruptedFeed"
)

// Retryable reports whether a caller may reasonably try the reference again.
func (k ErrorKind) Retryable() bool {
	return k == FetchFailure
}

// KindOf maps an error to its [ErrorKind]. Unrecognized errors are treated as fetch failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, shared.ErrUnknownFeed):
		return UnknownFeed
	case errors.Is(err, shared.ErrCorruptedFeed):
		return CorruptedFeed
	case errors.Is(err, shared.ErrEpisodeNotFound):
		return EpisodeNotFound
	case errors.Is(err, shared.ErrParseFailure):
		return ParseFailure
	default:
		// network errors, timeouts, cancellation and directory api errors
		return FetchFailure
	}
}

// ResolvedTrack is the outcome of resolving one reference.
type ResolvedTrack struct {
	Success     bool      `json:"success"`
	Title       string    `json:"title,omitempty"`
	Artist      string    `json:"artist,omitempty"`
	Image       string    `json:"image,omitempty"`
	AudioURL    string    `json:"audioUrl,omitempty"`
	Duration    int       `json:"duration,omitempty"`
	FeedTitle   string    `json:"feedTitle,omitempty"`
	PublishDate string    `json:"publishDate,omitempty"`
	Error       ErrorKind `json:"error,omitempty"`
}

// Failed returns an unsuccessful [ResolvedTrack] carrying kind.
func Failed(kind ErrorKind) ResolvedTrack {
	return ResolvedTrack{Success: false, Error: kind}
}

// ParseDuration converts "3600", "59:01" or "1:02:03" to seconds. Unparseable input yields 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if whole, _, ok := strings.Cut(s, "."); ok {
		s = whole
	}

	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
