package feed

import (
	"time"
)

// Metadata describes the feed document itself.
type Metadata struct {
	Title       string
	SiteURL     string
	Description string
}

// Candidate is a parsed feed entry not yet reconciled against the store.
type Candidate struct {
	FeedID      int64
	GUID        string
	Title       string
	URL         string
	Author      string
	Content     string
	ContentText string
	PublishedAt *time.Time
}

// Source identifies a feed to fetch during a refresh.
type Source struct {
	ID    int64
	Title string
	URL   string
}

// Result groups the candidates fetched from one feed.
type Result struct {
	FeedID     int64
	Candidates []Candidate
}

// Discovered is a feed endpoint found while probing a site.
type Discovered struct {
	Title string
	URL   string
}
