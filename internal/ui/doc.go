// Package ui renders CLI output with [lipgloss] styles.
//
// Renderers cover each command's result:
//  1. [RenderProgress] : one line per batch progress update
//  2. [RenderBatch] : success metrics and failed references
//  3. [RenderTrack] : a single resolved track
//  4. [RenderApply] : store merge and cleanup outcomes
//  5. [RenderStats] : store composition
//  6. [RenderRuns] and [RenderFailures] : ledger history
//
// Progress updates flow through a channel from the BatchEngine; [WatchProgress] drains it on a
// separate goroutine so the engine never blocks on terminal output.
package ui
