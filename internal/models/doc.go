// Package models defines the data model shared by the resolver, the batch coordinator and the reconciler.
//
// The package contains two categories of types:
//
// 1. Ephemeral resolution types
//   - [RemoteItemReference] : a (feedGuid, itemGuid) pair taken from a playlist feed
//   - [ResolvedTrack] : playable metadata (or a typed failure) for one reference
//   - [ErrorKind] : the failure taxonomy reported per reference
//
// 2. Persisted store types
//   - [TrackRecord] : one row of the JSON track store, with provenance and modification history
//   - [Database] : the whole store document ({musicTracks, metadata})
//
// [KindOf] maps an error chain built from the sentinels in the shared package onto an [ErrorKind].
package models
