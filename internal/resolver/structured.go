package resolver

import (
	"fmt"
	"strings"

	"github.com/desertthunder/v4vx/internal/shared"
	"github.com/mmcdole/gofeed"
)

// FeedExtractor parses feeds with [gofeed.Parser]. Unlike [RegexExtractor] it rejects content
// that is not a well-formed RSS, Atom or JSON feed.
type FeedExtractor struct {
	parser *gofeed.Parser
}

func NewFeedExtractor() *FeedExtractor {
	return &FeedExtractor{parser: gofeed.NewParser()}
}

func (e *FeedExtractor) Name() string { return ExtractorStructured }

func (e *FeedExtractor) Load(content string) (Document, error) {
	feed, err := e.parser.ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptedFeed, err)
	}

	doc := &structuredDocument{
		channel: Channel{
			Title:  strings.TrimSpace(feed.Title),
			Author: feedAuthor(feed),
			Items:  len(feed.Items),
		},
		items: make([]Item, 0, len(feed.Items)),
	}
	if feed.Image != nil {
		doc.channel.Image = strings.TrimSpace(feed.Image.URL)
	}
	if doc.channel.Image == "" && feed.ITunesExt != nil {
		doc.channel.Image = strings.TrimSpace(feed.ITunesExt.Image)
	}

	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		doc.items = append(doc.items, structuredItem(it))
	}

	return doc, nil
}

type structuredDocument struct {
	channel Channel
	items   []Item
}

func (d *structuredDocument) Channel() Channel { return d.channel }

func (d *structuredDocument) Item(guid string) (Item, bool) {
	for _, it := range d.items {
		if it.GUID != "" && sameGUID(it.GUID, guid) {
			return it, true
		}
	}
	return Item{}, false
}

func feedAuthor(feed *gofeed.Feed) string {
	if feed.ITunesExt != nil && strings.TrimSpace(feed.ITunesExt.Author) != "" {
		return strings.TrimSpace(feed.ITunesExt.Author)
	}
	for _, p := range feed.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	return ""
}

func structuredItem(it *gofeed.Item) Item {
	out := Item{
		GUID:        strings.TrimSpace(it.GUID),
		Title:       strings.TrimSpace(it.Title),
		PublishDate: strings.TrimSpace(it.Published),
	}

	if it.ITunesExt != nil {
		out.Author = strings.TrimSpace(it.ITunesExt.Author)
		out.Duration = strings.TrimSpace(it.ITunesExt.Duration)
		out.Image = strings.TrimSpace(it.ITunesExt.Image)
	}
	if out.Author == "" {
		for _, p := range it.Authors {
			if p != nil && strings.TrimSpace(p.Name) != "" {
				out.Author = strings.TrimSpace(p.Name)
				break
			}
		}
	}
	if out.Image == "" && it.Image != nil {
		out.Image = strings.TrimSpace(it.Image.URL)
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			out.AudioURL = strings.TrimSpace(enc.URL)
			break
		}
	}

	return out
}
