package tasks

import (
	"fmt"

	"github.com/desertthunder/v4vx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Partition Phase = iota
	StartWave
	ResolveFeed
	FeedFailed
	Complete
)

func (p Phase) String() string {
	switch p {
	case Partition:
		return "partition"
	case StartWave:
		return "start_wave"
	case ResolveFeed:
		return "resolve_feed"
	case FeedFailed:
		return "feed_failed"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// FeedProgress is attached to [ResolveFeed] and [FeedFailed] updates.
type FeedProgress struct {
	FeedGUID string
	Items    int
	Resolved int
	Error    models.ErrorKind
}

func partitionUpdate(refs, feeds int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Partition,
		Step:    0,
		Total:   feeds,
		Message: fmt.Sprintf("Grouped %d references into %d feeds", refs, feeds),
	}
}

func startWaveUpdate(wave, waves, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StartWave,
		Step:    wave,
		Total:   waves,
		Message: fmt.Sprintf("Starting wave %d/%d (%d feeds)...", wave, waves, size),
	}
}

func resolveFeedUpdate(step, total int, fp FeedProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveFeed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resolved %d/%d items from feed %s", fp.Resolved, fp.Items, fp.FeedGUID),
		Data:    fp,
	}
}

func feedFailedUpdate(step, total int, fp FeedProgress) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FeedFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Feed %s failed (%s), %d items affected", fp.FeedGUID, fp.Error, fp.Items),
		Data:    fp,
	}
}

func completeUpdate(result BatchResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Resolved(),
		Total:   len(result),
		Message: result.Summary(),
		Data:    result,
	}
}
