package reconcile

import (
	"github.com/desertthunder/v4vx/internal/models"
)

// idAllocator hands out ids above the store's high-water mark.
type idAllocator struct {
	last int64
	used map[models.TrackID]bool
}

func newIDAllocator(db *models.Database) *idAllocator {
	a := &idAllocator{last: db.Metadata.LastAssignedID, used: make(map[models.TrackID]bool, len(db.MusicTracks))}
	for i := range db.MusicTracks {
		id := db.MusicTracks[i].ID
		if id == "" {
			continue
		}
		a.used[id] = true
		if n, ok := id.Int(); ok && n > a.last {
			a.last = n
		}
	}
	return a
}

// next returns an unused id greater than every id seen so far.
func (a *idAllocator) next() models.TrackID {
	for {
		a.last++
		id := models.NewTrackID(a.last)
		if !a.used[id] {
			a.used[id] = true
			return id
		}
	}
}

// commit raises the persisted high-water mark.
func (a *idAllocator) commit(db *models.Database) {
	if a.last > db.Metadata.LastAssignedID {
		db.Metadata.LastAssignedID = a.last
	}
}
