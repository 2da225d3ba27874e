// Package store reads and writes the persisted JSON track store.
//
// The store is one document: {"musicTracks": [...], "metadata": {...}}. Writes go to a temp
// file in the same directory and are renamed over the original, so readers never observe a
// partial document. [Store.Save] stamps metadata.totalTracks and metadata.lastUpdated.
//
// [Store.Backup] copies the current file byte-for-byte to a "<path>.backup-<UTC timestamp>"
// sibling. Callers that remove or rewrite existing records must back up first.
//
// [Store.Lock] takes an advisory lock on "<path>.lock" so that two runs never interleave
// load/merge/save cycles. A held lock fails fast with [shared.ErrStoreLocked].
package store
