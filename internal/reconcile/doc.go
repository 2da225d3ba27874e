// Package reconcile merges track records into the persisted store without creating duplicates.
//
// # Matching
//
// Records collide in two passes:
//
//  1. Identity : same (feedGuid, itemGuid)
//  2. Fuzzy : same normalized (title, artist), and at least one side has no identity pair
//
// Two records with different identity pairs never collapse, however similar their titles.
//
// # Completeness
//
// A [Scorer] assigns points for each useful field. The higher score becomes primary (ties keep
// the earlier record), the other record fills the primary's empty fields, sources are unioned
// and the loser is discarded. When both records are already stored, the primary keeps its id
// and the loser's id is retired.
//
// # Ids
//
// New records get the next integer above both the highest numeric id and
// metadata.lastAssignedId, so an id is never handed out twice even after its record is removed.
//
// # Applying to a store
//
// [Reconciler.Apply] locks the store, loads it, merges, optionally sweeps and prunes, writes a
// byte-identical backup whenever an existing record is removed, then saves.
package reconcile
