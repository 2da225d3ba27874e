package resolver

import (
	"fmt"
	"strings"

	"github.com/desertthunder/v4vx/internal/shared"
)

const (
	ExtractorRegex      = "regex"
	ExtractorStructured = "structured"
)

// Channel holds the feed-level fields used for fallbacks.
type Channel struct {
	Title  string
	Author string
	Image  string
	Items  int
}

// Item holds the raw fields of one feed item.
type Item struct {
	GUID        string
	Title       string
	Author      string
	AudioURL    string
	Image       string
	Duration    string
	PublishDate string
}

// Document is a loaded feed.
type Document interface {
	Channel() Channel
	// Item returns the item whose GUID equals guid, ignoring case and surrounding whitespace.
	Item(guid string) (Item, bool)
}

// Extractor loads raw feed content into a [Document].
type Extractor interface {
	Name() string
	Load(content string) (Document, error)
}

// NewExtractor returns the extractor registered under name. An empty name selects the regex
// extractor.
func NewExtractor(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ExtractorRegex:
		return RegexExtractor{}, nil
	case ExtractorStructured:
		return NewFeedExtractor(), nil
	default:
		return nil, fmt.Errorf("%w: unknown extractor %q", shared.ErrInvalidConfig, name)
	}
}

func sameGUID(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
