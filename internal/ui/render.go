package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/v4vx/internal/formatter"
	"github.com/desertthunder/v4vx/internal/models"
	"github.com/desertthunder/v4vx/internal/reconcile"
	"github.com/desertthunder/v4vx/internal/store"
	"github.com/desertthunder/v4vx/internal/tasks"
)

const timeLayout = "2006-01-02 15:04:05"

func RenderProgress(u tasks.ProgressUpdate) string {
	switch u.Phase {
	case tasks.Partition:
		return styles.Help(u.Message)
	case tasks.StartWave:
		return styles.Help(u.Message)
	case tasks.ResolveFeed:
		return fmt.Sprintf("[%d/%d] %s", u.Step, u.Total, u.Message)
	case tasks.FeedFailed:
		return styles.Warn(fmt.Sprintf("[%d/%d] %s", u.Step, u.Total, u.Message))
	case tasks.Complete:
		return styles.OK(u.Message)
	default:
		return u.Message
	}
}

// RenderBatch summarizes a batch with per-kind failure counts and the failed keys.
func RenderBatch(result tasks.BatchResult) string {
	var b strings.Builder

	total := len(result)
	resolved := result.Resolved()
	pct := 0.0
	if total > 0 {
		pct = float64(resolved) / float64(total) * 100
	}

	if resolved == total {
		b.WriteString(styles.OK("✓ Batch Complete!"))
	} else {
		b.WriteString(styles.Warn("Batch Complete"))
	}
	fmt.Fprintf(&b, "\nSuccess rate: %d/%d (%.1f%%)", resolved, total, pct)

	failures := result.Failures()
	if len(failures) == 0 {
		return b.String()
	}

	b.WriteString("\n\n")
	b.WriteString(styles.Warn(fmt.Sprintf("Failed to resolve %d references:", total-resolved)))
	for _, kind := range slices.Sorted(maps.Keys(failures)) {
		fmt.Fprintf(&b, "\n  %s: %d", kind, failures[kind])
	}
	for _, key := range result.Keys() {
		if t := result[key]; !t.Success {
			fmt.Fprintf(&b, "\n  • %s (%s)", key, t.Error)
		}
	}
	return b.String()
}

func RenderTrack(ref models.RemoteItemReference, t models.ResolvedTrack) string {
	if !t.Success {
		return styles.Err(fmt.Sprintf("✗ %s: %s", ref.Key(), t.Error))
	}

	lines := []string{styles.OK(fmt.Sprintf("✓ %s - %s", t.Artist, t.Title))}
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("  %-9s %s", label+":", value))
		}
	}
	add("Feed", t.FeedTitle)
	add("Audio", t.AudioURL)
	add("Image", t.Image)
	if t.Duration > 0 {
		add("Duration", formatter.FormatDuration(t.Duration))
	}
	add("Published", t.PublishDate)
	return strings.Join(lines, "\n")
}

func RenderApply(res *reconcile.ApplyResult) string {
	var b strings.Builder

	if !res.Saved {
		b.WriteString(styles.Help("Store unchanged"))
	} else {
		b.WriteString(styles.OK("✓ Store updated"))
	}
	fmt.Fprintf(&b, "\n%s", res.MergeResult.String())
	fmt.Fprintf(&b, "\nTracks: %d", res.Total)
	fmt.Fprintf(&b, "\nRun: %s", res.RunID)
	if res.Backup != "" {
		fmt.Fprintf(&b, "\nBackup: %s", res.Backup)
	}
	return b.String()
}

func RenderStats(path string, st store.Stats) string {
	var b strings.Builder

	b.WriteString(styles.Title(path))
	fmt.Fprintf(&b, "\nTracks:    %d", st.Total)
	fmt.Fprintf(&b, "\nResolved:  %d", st.Resolved)
	fmt.Fprintf(&b, "\nPending:   %d", st.Pending)
	fmt.Fprintf(&b, "\nFailed:    %d", st.Failed)
	fmt.Fprintf(&b, "\nIdentity:  %d", st.WithIdentity)
	fmt.Fprintf(&b, "\nAudio:     %d", st.WithAudio)

	if len(st.Sources) > 0 {
		b.WriteString("\n\nSources:")
		for _, src := range slices.Sorted(maps.Keys(st.Sources)) {
			fmt.Fprintf(&b, "\n  %s: %d", src, st.Sources[src])
		}
	}
	return b.String()
}

func RenderRuns(runs []*models.Run) string {
	if len(runs) == 0 {
		return styles.Help("No runs recorded")
	}

	var b strings.Builder
	b.WriteString(styles.Title("Recent runs"))
	for _, run := range runs {
		status := "running"
		if run.CompletedAt != nil {
			status = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(&b, "\n#%d %s %-7s %d/%d resolved, %d failed (%s)",
			run.Sequence, run.StartedAt.Local().Format(timeLayout), run.Kind, run.Resolved, run.Total, run.Failed, status)
	}
	return b.String()
}

func RenderFailures(items []*models.Resolution) string {
	if len(items) == 0 {
		return styles.OK("No failures recorded")
	}

	var b strings.Builder
	b.WriteString(styles.Title("Recent failures"))
	for _, res := range items {
		fmt.Fprintf(&b, "\n%s %-15s %s",
			res.ResolvedAt.Local().Format(timeLayout), res.ErrorKind, models.ReferenceKey(res.FeedGUID, res.ItemGUID))
	}
	return b.String()
}
