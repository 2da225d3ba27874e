// Package services implements the HTTP clients the resolver depends on.
//
// # Feed Directory
//
// [DirectoryClient] maps a feed GUID to its hosting URL using a Podcast Index compatible
// API. Requests carry X-Auth-Key, X-Auth-Date and an Authorization header holding the
// hex SHA-1 of key+secret+date. Calls pass through a [rate.Limiter] shared by every
// goroutine using the client.
//
// Successful lookups are remembered in a discovered-URL table that lives as long as the
// client. [DirectoryClient.Forget] drops it.
//
// # Feed Hosts
//
// [FeedFetcher] performs plain GETs of feed URLs with a per-fetch timeout.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrUnknownFeed] : directory has no feed for the GUID
//   - [shared.ErrCorruptedFeed] : directory lists the feed without a title
//   - [shared.ErrAPIRequest] : directory transport, HTTP or decoding failure
//   - [shared.ErrFetchFailure] : feed host transport or non-2xx failure
package services
