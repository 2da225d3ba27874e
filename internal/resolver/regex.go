package resolver

import (
	"html"
	"regexp"
	"strings"
)

var (
	itemBlockPattern = regexp.MustCompile(`(?is)<item\b[^>]*>(.*?)</item>`)
	itemOpenPattern  = regexp.MustCompile(`(?i)<item\b`)
	cdataPattern     = regexp.MustCompile(`(?s)^<!\[CDATA\[(.*?)\]\]>$`)
	enclosurePattern = regexp.MustCompile(`(?is)<enclosure\b[^>]*?\burl\s*=\s*["']([^"']+)["']`)
	itunesImgPattern = regexp.MustCompile(`(?is)<itunes:image\b[^>]*?\bhref\s*=\s*["']([^"']+)["']`)
	imageURLPattern  = regexp.MustCompile(`(?is)<image\b[^>]*>.*?<url>(.*?)</url>`)
)

var tagPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range []string{"title", "guid", "author", "itunes:author", "itunes:duration", "pubDate"} {
		tagPatterns[tag] = regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `\b[^>]*>(.*?)</` + regexp.QuoteMeta(tag) + `>`)
	}
}

// RegexExtractor pulls fields out of raw item blocks with regular expressions. It never fails
// to load: content that is not a feed at all yields an empty channel with no items.
type RegexExtractor struct{}

func (RegexExtractor) Name() string { return ExtractorRegex }

func (RegexExtractor) Load(content string) (Document, error) {
	head := content
	if loc := itemOpenPattern.FindStringIndex(content); loc != nil {
		head = content[:loc[0]]
	}

	doc := &regexDocument{
		channel: Channel{
			Title:  tagText(head, "title"),
			Author: firstNonEmpty(tagText(head, "itunes:author"), tagText(head, "author")),
			Image:  channelImage(head),
		},
	}

	for _, m := range itemBlockPattern.FindAllStringSubmatch(content, -1) {
		block := m[1]
		doc.items = append(doc.items, Item{
			GUID:        tagText(block, "guid"),
			Title:       tagText(block, "title"),
			Author:      firstNonEmpty(tagText(block, "itunes:author"), tagText(block, "author")),
			AudioURL:    attr(block, enclosurePattern),
			Image:       attr(block, itunesImgPattern),
			Duration:    tagText(block, "itunes:duration"),
			PublishDate: tagText(block, "pubDate"),
		})
	}
	doc.channel.Items = len(doc.items)

	return doc, nil
}

type regexDocument struct {
	channel Channel
	items   []Item
}

func (d *regexDocument) Channel() Channel { return d.channel }

func (d *regexDocument) Item(guid string) (Item, bool) {
	for _, it := range d.items {
		if it.GUID != "" && sameGUID(it.GUID, guid) {
			return it, true
		}
	}
	return Item{}, false
}

// tagText returns the unescaped text of the first <tag> in s.
func tagText(s, tag string) string {
	m := tagPatterns[tag].FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return cleanText(m[1])
}

func attr(s string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return html.UnescapeString(strings.TrimSpace(m[1]))
}

func channelImage(head string) string {
	if u := attr(head, itunesImgPattern); u != "" {
		return u
	}
	if m := imageURLPattern.FindStringSubmatch(head); m != nil {
		return cleanText(m[1])
	}
	return ""
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if m := cdataPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(html.UnescapeString(s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
