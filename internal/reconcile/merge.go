package reconcile

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/shared"
)

// MergeResult counts what a merge, sweep or cleanup did.
type MergeResult struct {
	Added            int              `json:"added"`
	UpdatedInPlace   int              `json:"updatedInPlace"`
	DuplicatesMerged int              `json:"duplicatesMerged"`
	Removed          int              `json:"removed"`
	Unchanged        int              `json:"unchanged"`
	RemovedIDs       []models.TrackID `json:"removedIds,omitempty"`
}

// Changed reports whether the document was modified.
func (m MergeResult) Changed() bool {
	return m.Added+m.UpdatedInPlace+m.DuplicatesMerged+m.Removed > 0
}

func (m *MergeResult) add(o MergeResult) {
	m.Added += o.Added
	m.UpdatedInPlace += o.UpdatedInPlace
	m.DuplicatesMerged += o.DuplicatesMerged
	m.Removed += o.Removed
	m.Unchanged += o.Unchanged
	m.RemovedIDs = append(m.RemovedIDs, o.RemovedIDs...)
}

func (m MergeResult) String() string {
	return fmt.Sprintf("%d added, %d updated, %d duplicates merged, %d removed", m.Added, m.UpdatedInPlace, m.DuplicatesMerged, m.Removed)
}

// Opts configures a [Reconciler].
type Opts struct {
	Scorer Scorer
	Now    func() time.Time
	Logger *log.Logger
}

// Reconciler merges track records.
type Reconciler struct {
	scorer Scorer
	now    func() time.Time
	logger *log.Logger
}

func New(opts Opts) *Reconciler {
	if opts.Scorer == (Scorer{}) {
		opts.Scorer = NewScorer(shared.ScoringConfig{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	return &Reconciler{
		scorer: opts.Scorer,
		now:    opts.Now,
		logger: shared.WithLogger(opts.Logger, "component", "reconcile"),
	}
}

// fuzzyKey is the normalized (title, artist) key, or "" when either is a placeholder.
func fuzzyKey(rec *models.TrackRecord) string {
	if IsPlaceholder(rec.Title) || IsPlaceholder(rec.Artist) {
		return ""
	}
	return shared.NormalizeTrackKey(rec.Title, rec.Artist)
}

// fuzzyCompatible reports whether two fuzzy-equal records may collapse.
func fuzzyCompatible(a, b *models.TrackRecord) bool {
	return !a.HasIdentity() || !b.HasIdentity()
}

// index tracks row positions by identity and fuzzy key.
type index struct {
	byKey   map[string]int
	byFuzzy map[string][]int
}

func newIndex() *index {
	return &index{byKey: make(map[string]int), byFuzzy: make(map[string][]int)}
}

func (ix *index) add(i int, rec *models.TrackRecord) {
	if k := rec.Key(); k != "" {
		if _, ok := ix.byKey[k]; !ok {
			ix.byKey[k] = i
		}
	}
	if fk := fuzzyKey(rec); fk != "" {
		for _, j := range ix.byFuzzy[fk] {
			if j == i {
				return
			}
		}
		ix.byFuzzy[fk] = append(ix.byFuzzy[fk], i)
	}
}

// fuzzyMatch returns the first indexed row that may absorb rec.
func (ix *index) fuzzyMatch(rows []models.TrackRecord, rec *models.TrackRecord, alive func(int) bool) (int, bool) {
	fk := fuzzyKey(rec)
	if fk == "" {
		return 0, false
	}
	for _, j := range ix.byFuzzy[fk] {
		if alive(j) && fuzzyCompatible(&rows[j], rec) {
			return j, true
		}
	}
	return 0, false
}

// Merge folds incoming records into db. Incoming records never displace a stored row: the
// stored row keeps its id, position and history.
func (r *Reconciler) Merge(db *models.Database, incoming []models.TrackRecord) MergeResult {
	var res MergeResult
	now := r.now().UTC()
	ids := newIDAllocator(db)
	defer ids.commit(db)

	ix := newIndex()
	for i := range db.MusicTracks {
		ix.add(i, &db.MusicTracks[i])
	}
	always := func(int) bool { return true }

	for _, rec := range incoming {
		rec := normalize(rec)

		if k := rec.Key(); k != "" {
			if j, ok := ix.byKey[k]; ok {
				if r.absorb(&db.MusicTracks[j], rec, now, models.ActionUpdated) {
					res.UpdatedInPlace++
					ix.add(j, &db.MusicTracks[j])
				} else {
					res.Unchanged++
				}
				continue
			}
		}

		if j, ok := ix.fuzzyMatch(db.MusicTracks, &rec, always); ok {
			if r.absorb(&db.MusicTracks[j], rec, now, models.ActionDuplicateRecord) {
				res.DuplicatesMerged++
				ix.add(j, &db.MusicTracks[j])
			} else {
				res.Unchanged++
			}
			continue
		}

		rec.ID = ids.next()
		rec.ModificationHistory = nil
		rec.Record(now, models.ActionCreated, fmt.Sprintf("created from %s", sourceLabel(rec.Source)))
		db.MusicTracks = append(db.MusicTracks, rec)
		ix.add(len(db.MusicTracks)-1, &db.MusicTracks[len(db.MusicTracks)-1])
		res.Added++
	}

	r.logger.Info("merge complete", "incoming", len(incoming), "added", res.Added, "updated", res.UpdatedInPlace, "duplicates", res.DuplicatesMerged)
	return res
}

// absorb merges an incoming record into a stored one and reports whether anything changed.
func (r *Reconciler) absorb(stored *models.TrackRecord, incoming models.TrackRecord, now time.Time, action string) bool {
	merged := *stored
	if r.scorer.Score(&incoming) > r.scorer.Score(stored) {
		merged = incoming
		merged.ID = stored.ID
		merged.ModificationHistory = stored.ModificationHistory
		merged.LastModified = stored.LastModified
		fillFrom(&merged, stored)
		merged.Source = models.UnionSources(incoming.Source, stored.Source)
	} else {
		fillFrom(&merged, &incoming)
		merged.Source = models.UnionSources(stored.Source, incoming.Source)
	}
	merged.ResolutionStatus = mergeStatus(stored.ResolutionStatus, incoming.ResolutionStatus)

	if sameContent(stored, &merged) {
		return false
	}

	desc := fmt.Sprintf("merged fields from %s", sourceLabel(incoming.Source))
	if action == models.ActionDuplicateRecord {
		desc = fmt.Sprintf("absorbed duplicate %q by %q from %s", incoming.Title, incoming.Artist, sourceLabel(incoming.Source))
	}
	merged.Record(now, action, desc)
	*stored = merged
	return true
}

// combine collapses two stored records. a is the earlier row. The returned record carries the
// primary's id and history; the loser's id is returned for retirement.
func (r *Reconciler) combine(a, b *models.TrackRecord, now time.Time) (models.TrackRecord, models.TrackID) {
	primary, loser := a, b
	if r.scorer.Score(b) > r.scorer.Score(a) {
		primary, loser = b, a
	}

	merged := *primary
	fillFrom(&merged, loser)
	merged.Source = models.UnionSources(primary.Source, loser.Source)
	merged.ResolutionStatus = mergeStatus(primary.ResolutionStatus, loser.ResolutionStatus)
	merged.Record(now, models.ActionDuplicateRecord, fmt.Sprintf("merged duplicate record %s from %s", idLabel(loser.ID), sourceLabel(loser.Source)))
	return merged, loser.ID
}

// fillFrom copies donor fields into dst fields that are empty or placeholders.
func fillFrom(dst, donor *models.TrackRecord) {
	if !dst.HasIdentity() && donor.HasIdentity() {
		dst.FeedGUID, dst.ItemGUID = donor.FeedGUID, donor.ItemGUID
	}
	fill := func(d *string, s string) {
		if IsPlaceholder(*d) && !IsPlaceholder(s) {
			*d = s
		}
	}
	fill(&dst.Title, donor.Title)
	fill(&dst.Artist, donor.Artist)
	fill(&dst.Album, donor.Album)
	fill(&dst.Image, donor.Image)
	fill(&dst.PublishDate, donor.PublishDate)
	fill(&dst.FeedTitle, donor.FeedTitle)
	if !PlausibleAudioURL(dst.AudioURL) && PlausibleAudioURL(donor.AudioURL) {
		dst.AudioURL = donor.AudioURL
	}
	if dst.Duration <= 0 && donor.Duration > 0 {
		dst.Duration = donor.Duration
	}
}

// statusRank orders the lifecycle: a later state is never undone by an earlier one.
var statusRank = map[models.ResolutionStatus]int{
	models.StatusPending:  1,
	models.StatusFailed:   2,
	models.StatusResolved: 3,
}

// mergeStatus returns the further along of a and b: resolved, then failed, then pending.
func mergeStatus(a, b models.ResolutionStatus) models.ResolutionStatus {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

func sameContent(a, b *models.TrackRecord) bool {
	x, y := *a, *b
	x.ModificationHistory, y.ModificationHistory = nil, nil
	x.LastModified, y.LastModified = time.Time{}, time.Time{}
	return reflect.DeepEqual(x, y)
}

func normalize(rec models.TrackRecord) models.TrackRecord {
	rec.FeedGUID = strings.TrimSpace(rec.FeedGUID)
	rec.ItemGUID = strings.TrimSpace(rec.ItemGUID)
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Artist = strings.TrimSpace(rec.Artist)
	rec.Source = models.UnionSources(rec.Source, "")
	if rec.ResolutionStatus == "" {
		rec.ResolutionStatus = models.StatusPending
	}
	return rec
}

func sourceLabel(source string) string {
	if source == "" {
		return "unknown source"
	}
	return source
}

func idLabel(id models.TrackID) string {
	if id == "" {
		return "without id"
	}
	return "#" + string(id)
}
