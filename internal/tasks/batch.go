package tasks

import (
	"context"
	"strings"
	"sync"

	"github.com/desertthunder/v4vx/internal/models"
	"golang.org/x/sync/errgroup"
)

// feedGroup is every distinct item requested from one feed. Lookups use trimmed GUIDs; keys
// holds the untouched input keys that share each trimmed item.
type feedGroup struct {
	feedGUID string
	items    []string
	keys     map[string][]string
}

// partition groups refs by feed GUID in first-seen order, dropping duplicate keys.
func partition(refs []models.RemoteItemReference) []feedGroup {
	var groups []feedGroup
	index := make(map[string]int)
	seen := make(map[string]struct{}, len(refs))

	for _, ref := range refs {
		key := ref.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		feed := strings.TrimSpace(ref.FeedGUID)
		item := strings.TrimSpace(ref.ItemGUID)

		i, ok := index[feed]
		if !ok {
			i = len(groups)
			index[feed] = i
			groups = append(groups, feedGroup{feedGUID: feed, keys: make(map[string][]string)})
		}
		g := &groups[i]
		if _, ok := g.keys[item]; !ok {
			g.items = append(g.items, item)
		}
		g.keys[item] = append(g.keys[item], key)
	}
	return groups
}

// ResolveBatch resolves refs and returns one entry per distinct reference key.
//
// The returned error is non-nil only when ctx ends before every feed was processed; the
// result is complete either way.
func (e *BatchEngine) ResolveBatch(
	ctx context.Context,
	refs []models.RemoteItemReference,
	prog chan<- ProgressUpdate,
) (BatchResult, error) {
	groups := partition(refs)
	result := make(BatchResult, len(refs))
	e.sendProgress(prog, partitionUpdate(len(refs), len(groups)))

	var mu sync.Mutex
	completed := 0
	waves := (len(groups) + e.opts.WaveSize - 1) / e.opts.WaveSize

waves:
	for w := 0; w < waves; w++ {
		if w > 0 {
			if err := sleep(ctx, e.opts.WaveDelay); err != nil {
				break
			}
		}

		lo := w * e.opts.WaveSize
		hi := min(lo+e.opts.WaveSize, len(groups))
		e.sendProgress(prog, startWaveUpdate(w+1, waves, hi-lo))

		var g errgroup.Group
		g.SetLimit(e.opts.Workers)

		for _, group := range groups[lo:hi] {
			if ctx.Err() != nil {
				g.Wait()
				break waves
			}

			g.Go(func() error {
				tracks, kind := e.resolveFeed(ctx, group)

				mu.Lock()
				defer mu.Unlock()
				for item, track := range tracks {
					for _, key := range group.keys[item] {
						result[key] = track
					}
				}
				completed++

				fp := FeedProgress{FeedGUID: group.feedGUID, Items: len(group.items), Error: kind}
				if kind != models.NoError {
					e.sendProgress(prog, feedFailedUpdate(completed, len(groups), fp))
					return nil
				}
				for _, t := range tracks {
					if t.Success {
						fp.Resolved++
					}
				}
				e.sendProgress(prog, resolveFeedUpdate(completed, len(groups), fp))
				return nil
			})
		}
		g.Wait()
	}

	// anything left unprocessed after cancellation
	for _, group := range groups {
		for _, keys := range group.keys {
			for _, key := range keys {
				if _, ok := result[key]; !ok {
					result[key] = models.Failed(models.FetchFailure)
				}
			}
		}
	}

	e.logger.Info("batch complete", "feeds", len(groups), "references", len(result), "resolved", result.Resolved())
	e.sendProgress(prog, completeUpdate(result))
	return result, ctx.Err()
}

// resolveFeed loads one feed and extracts every item of the group from it. A feed-level
// failure is returned as the kind shared by every item.
func (e *BatchEngine) resolveFeed(ctx context.Context, group feedGroup) (map[string]models.ResolvedTrack, models.ErrorKind) {
	tracks := make(map[string]models.ResolvedTrack, len(group.items))

	var kind models.ErrorKind
	for attempt := 0; ; attempt++ {
		doc, err := e.resolver.Feed(ctx, group.feedGUID)
		if err == nil {
			for _, item := range group.items {
				tracks[item] = e.resolver.Item(doc, item)
			}
			return tracks, models.NoError
		}

		kind = models.KindOf(err)
		if !kind.Retryable() || attempt >= e.opts.Retries || ctx.Err() != nil {
			e.logger.Warn("feed failed", "guid", group.feedGUID, "kind", kind, "attempts", attempt+1, "error", err)
			break
		}

		e.logger.Debug("retrying feed", "guid", group.feedGUID, "attempt", attempt+1, "error", err)
		if sleep(ctx, e.opts.RetryDelay) != nil {
			break
		}
	}

	for _, item := range group.items {
		tracks[item] = models.Failed(kind)
	}
	return tracks, kind
}
