package feed

import (
	"bytes"
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
	stripPolicy  *bluemonday.Policy
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		stripPolicy:  bluemonday.StrictPolicy(),
	}
}

// Run parses a feed document into its metadata and candidate articles.
func (p *Parser) Run(data []byte) (*Metadata, []Candidate, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		SiteURL:     parsed.Link,
		Description: parsed.Description,
	}

	candidates := make([]Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		candidates = append(candidates, p.normalizeItem(item))
	}

	return metadata, candidates, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Candidate {
	// Structured content when present, else the summary field
	content := cmp.Or(item.Content, item.Description)

	candidate := Candidate{
		Title:       cmp.Or(item.Title, "Untitled"),
		URL:         item.Link,
		Content:     content,
		ContentText: p.stripMarkup(content),
	}

	candidate.GUID = cmp.Or(item.GUID, item.Link)
	if candidate.GUID == "" {
		// The store requires a non-empty dedup key; derive a stable one
		candidate.GUID = contentKey(candidate.Title, candidate.URL)
	}

	if item.PublishedParsed != nil {
		candidate.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		candidate.PublishedAt = item.UpdatedParsed
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		candidate.Author = item.Authors[0].Name
	} else if item.Author != nil {
		candidate.Author = item.Author.Name
	}

	return candidate
}

// stripMarkup derives a plain-text rendering of feed content. Best-effort:
// any failure leaves the plain-text field empty.
func (p *Parser) stripMarkup(markup string) string {
	if markup == "" {
		return ""
	}
	text := p.stripPolicy.Sanitize(markup)
	return strings.TrimSpace(html.UnescapeString(text))
}

// contentKey derives a deterministic dedup key for entries that carry
// neither a native identifier nor a link.
func contentKey(title, link string) string {
	sum := sha256.Sum256([]byte(title + "|" + link))
	return hex.EncodeToString(sum[:])
}
