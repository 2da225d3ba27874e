package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Resolution errors
	ErrUnknownFeed     = fmt.Errorf("unknown feed")
	ErrCorruptedFeed   = fmt.Errorf("corrupted feed")
	ErrFetchFailure    = fmt.Errorf("feed fetch failed")
	ErrEpisodeNotFound = fmt.Errorf("episode not found")
	ErrParseFailure    = fmt.Errorf("feed parse failed")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// Store errors
	ErrStoreLocked     = fmt.Errorf("track store is locked by another run")
	ErrStoreUnwritable = fmt.Errorf("track store path is not writable")
	ErrCorruptedStore  = fmt.Errorf("track store is not valid JSON")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
