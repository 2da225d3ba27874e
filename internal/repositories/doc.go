// Package repositories implements the SQLite resolution ledger.
//
// The ledger keeps a history of every resolve and batch run and the outcome of each
// reference, so repeated failures can be inspected after the fact.
//
// Key Implementations:
//   - [RunRepository] : one row per run with totals and completion time
//   - [ResolutionRepository] : per-reference outcomes linked to their run
//   - [Ledger] : records a whole batch result in one call
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
