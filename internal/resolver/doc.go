// Package resolver turns a remote item reference (feedGuid, itemGuid) into playable track metadata.
//
// # Locating the feed
//
// A feed URL is located by an ordered [Chain] of [Stage]s. Each stage either returns a URL,
// returns [ErrPass] to hand the GUID to the next stage, or returns a terminal error:
//
//  1. seed : static feedGuid → feedUrl table from configuration
//  2. discovered : URLs the directory client found earlier in this process (no network)
//  3. directory : the directory API; a miss stops the chain with UnknownFeed
//
// # Fetching and extracting
//
// Feed content is read through the [feedcache.Cache] and fetched on a miss. An [Extractor]
// loads the content into a [Document] that exposes channel-level fields and items by GUID.
// [RegexExtractor] works on raw item blocks and tolerates malformed XML; [FeedExtractor] uses a
// structured RSS/Atom parser.
//
// Artist falls back from item author to feed author to feed title to [UnknownArtist].
package resolver
