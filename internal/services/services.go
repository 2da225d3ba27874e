package services

import (
	"context"
)

// FeedDirectory resolves a feed GUID to the URL that hosts the feed.
type FeedDirectory interface {
	// Lookup returns the feed URL for feedGUID, consulting the discovered-URL table before the API.
	//
	// Errors wrap [shared.ErrUnknownFeed] (not found, terminal), [shared.ErrCorruptedFeed] (listed
	// without a title) or [shared.ErrAPIRequest] (transport/HTTP/decoding failure, retryable).
	Lookup(ctx context.Context, feedGUID string) (string, error)

	// Cached returns a previously discovered URL without any network access.
	Cached(feedGUID string) (string, bool)

	// Forget drops every discovered mapping.
	Forget()
}

// Fetcher downloads raw feed documents.
type Fetcher interface {
	// Fetch returns the body of feedURL. Any failure wraps [shared.ErrFetchFailure].
	Fetch(ctx context.Context, feedURL string) (string, error)
}
