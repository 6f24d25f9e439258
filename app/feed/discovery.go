package feed

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Conventional feed locations probed when a page advertises nothing.
var wellKnownPaths = []string{"/feed", "/rss", "/rss.xml", "/atom.xml", "/index.xml", "/feed.xml"}

// Discover probes a site for feed endpoints: first the <link
// rel="alternate"> elements of its landing page, then conventional paths.
// Every candidate is fetched and must parse as a feed before it is
// reported; the reported title comes from the feed document itself.
func (f *Fetcher) Discover(ctx context.Context, siteURL string) ([]Discovered, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" {
		base.Scheme = "https"
	}

	candidates := f.advertisedFeeds(ctx, base)
	for _, path := range wellKnownPaths {
		candidates = append(candidates, base.ResolveReference(&url.URL{Path: path}).String())
	}

	var (
		discovered []Discovered
		seen       = map[string]bool{}
	)
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		metadata, _, err := f.Fetch(ctx, candidate)
		if err != nil {
			slog.Debug("Discovery candidate rejected", "url", candidate, "error", err)
			continue
		}

		title := metadata.Title
		if title == "" {
			title = candidate
		}
		discovered = append(discovered, Discovered{Title: title, URL: candidate})
	}

	return discovered, nil
}

// advertisedFeeds scans the landing page for RSS/Atom alternate links.
// Failures here are not fatal; the conventional paths still get probed.
func (f *Fetcher) advertisedFeeds(ctx context.Context, base *url.URL) []string {
	data, err := f.get(ctx, base.String())
	if err != nil {
		slog.Debug("Discovery page fetch failed", "url", base.String(), "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Discovery page parse failed", "url", base.String(), "error", err)
		return nil
	}

	var found []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, sel *goquery.Selection) {
		linkType, _ := sel.Attr("type")
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		linkType = strings.ToLower(linkType)
		if !strings.Contains(linkType, "rss") && !strings.Contains(linkType, "atom") {
			return
		}
		if resolved, err := base.Parse(href); err == nil {
			found = append(found, resolved.String())
		}
	})

	return found
}
