// Package tasks coordinates batch resolution of remote item references with real-time progress reporting.
//
// # Batch Resolution
//
// [BatchEngine.ResolveBatch] takes any number of references and returns a [BatchResult] with
// exactly one entry per distinct "feedGuid:itemGuid" key:
//
//  1. Partition : references are grouped by feed GUID in first-seen order
//  2. Waves : feeds are processed in waves of [BatchOpts.WaveSize] with a courtesy delay between waves
//  3. Fan-out : within a wave, up to [BatchOpts.Workers] feeds are resolved concurrently
//  4. Items : each feed is located and loaded once, then every item of that feed is extracted from the same document
//
// A feed-level failure marks every reference of that feed with the same error kind. Retryable
// failures are retried [BatchOpts.Retries] times before giving up.
//
// # Progress Reporting
//
// # Operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Cancellation
//
// A canceled context stops new feeds from being scheduled. The result is still complete:
// references that were never processed carry FetchFailure, and the context error is returned
// alongside the result.
package tasks
