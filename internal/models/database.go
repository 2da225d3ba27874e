package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Database is the persisted track store document.
type Database struct {
	MusicTracks []TrackRecord `json:"musicTracks"`
	Metadata    Metadata      `json:"metadata"`
}

// Metadata carries store-level bookkeeping. Keys other than the known ones are free-form run
// annotations and survive a load/save round trip untouched.
type Metadata struct {
	TotalTracks    int
	LastUpdated    time.Time
	LastAssignedID int64
	Annotations    map[string]json.RawMessage
}

const (
	metaTotalTracks    = "totalTracks"
	metaLastUpdated    = "lastUpdated"
	metaLastAssignedID = "lastAssignedId"
)

// Annotate sets a free-form metadata key.
func (m *Metadata) Annotate(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("annotate %s: %w", key, err)
	}
	if m.Annotations == nil {
		m.Annotations = make(map[string]json.RawMessage)
	}
	m.Annotations[key] = raw
	return nil
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Annotations)+3)
	for k, v := range m.Annotations {
		out[k] = v
	}
	out[metaTotalTracks] = m.TotalTracks
	out[metaLastUpdated] = m.LastUpdated
	if m.LastAssignedID > 0 {
		out[metaLastAssignedID] = m.LastAssignedID
	}
	return json.Marshal(out)
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*m = Metadata{}
	if v, ok := raw[metaTotalTracks]; ok {
		_ = json.Unmarshal(v, &m.TotalTracks)
		delete(raw, metaTotalTracks)
	}
	if v, ok := raw[metaLastUpdated]; ok {
		// older writers used non-RFC3339 dates; those read as zero and get rewritten on commit
		_ = json.Unmarshal(v, &m.LastUpdated)
		delete(raw, metaLastUpdated)
	}
	if v, ok := raw[metaLastAssignedID]; ok {
		_ = json.Unmarshal(v, &m.LastAssignedID)
		delete(raw, metaLastAssignedID)
	}
	if len(raw) > 0 {
		m.Annotations = raw
	}
	return nil
}
