package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResolutionStatus tracks how far a record has been resolved.
type ResolutionStatus string

const (
	StatusPending  ResolutionStatus = "pending"
	StatusResolved ResolutionStatus = "resolved"
	StatusFailed   ResolutionStatus = "failed"
)

// History actions written by the reconciler.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDuplicateRecord = "DuplicateRecord"
	ActionCleanup         = "cleanup"
)

// TrackID is a store id. Legacy stores mix numeric and string ids, so both are accepted on read
// and numeric ids are written back as JSON numbers.
type TrackID string

// NewTrackID formats n as a TrackID.
func NewTrackID(n int64) TrackID {
	return TrackID(strconv.FormatInt(n, 10))
}

// Int returns the numeric value of the id, if it has one.
func (id TrackID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

func (id TrackID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Int(); ok && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *TrackID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TrackID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("track id: %w", err)
	}
	*id = TrackID(n.String())
	return nil
}

// Seconds is a duration in whole seconds that also reads "mm:ss" strings written by older imports.
type Seconds int

func (s *Seconds) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Seconds(ParseDuration(str))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*s = Seconds(int(f))
	return nil
}

// Modification is one entry of a record's append-only history.
type Modification struct {
	Date        time.Time `json:"date"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
}

// TrackRecord is one persisted row of the track store.
type TrackRecord struct {
	ID                  TrackID          `json:"id"`
	FeedGUID            string           `json:"feedGuid"`
	ItemGUID            string           `json:"itemGuid"`
	Title               string           `json:"title"`
	Artist              string           `json:"artist"`
	Album               string           `json:"album"`
	AudioURL            string           `json:"audioUrl"`
	Image               string           `json:"image"`
	Duration            Seconds          `json:"duration"`
	PublishDate         string           `json:"publishDate,omitempty"`
	FeedTitle           string           `json:"feedTitle,omitempty"`
	Source              string           `json:"source"`
	ResolutionStatus    ResolutionStatus `json:"resolutionStatus"`
	LastModified        time.Time        `json:"lastModified"`
	ModificationHistory []Modification   `json:"modificationHistory"`
}

// HasIdentity reports whether the record carries a usable (feedGuid, itemGuid) pair.
func (t *TrackRecord) HasIdentity() bool {
	return strings.TrimSpace(t.FeedGUID) != "" && strings.TrimSpace(t.ItemGUID) != ""
}

// Key returns the identity key, or "" when the record has no identity.
func (t *TrackRecord) Key() string {
	if !t.HasIdentity() {
		return ""
	}
	return ReferenceKey(t.FeedGUID, t.ItemGUID)
}

// Reference returns the record's identity as a reference.
func (t *TrackRecord) Reference() RemoteItemReference {
	return RemoteItemReference{FeedGUID: t.FeedGUID, ItemGUID: t.ItemGUID}
}

// AddSource unions tags into the record's source set.
func (t *TrackRecord) AddSource(tags ...string) {
	t.Source = UnionSources(t.Source, strings.Join(tags, ","))
}

// Record appends a history entry. Dates never move backwards: an entry older than the last one
// is stamped with the last entry's date.
func (t *TrackRecord) Record(at time.Time, action, description string) {
	if n := len(t.ModificationHistory); n > 0 {
		if last := t.ModificationHistory[n-1].Date; at.Before(last) {
			at = last
		}
	}
	t.ModificationHistory = append(t.ModificationHistory, Modification{
		Date:        at,
		Action:      action,
		Description: description,
	})
	t.LastModified = at
}

// SplitSources parses a comma-joined provenance string into its distinct tags, preserving order.
func SplitSources(s string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// UnionSources appends the tags of b that a lacks.
func UnionSources(a, b string) string {
	return strings.Join(SplitSources(a+","+b), ",")
}
