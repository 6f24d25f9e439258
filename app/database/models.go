package database

import (
	"database/sql"
	"time"
)

type Feed struct {
	ID          int64
	Title       string
	URL         string // unique fetch source
	SiteURL     string
	Description string
	LastFetched *time.Time // nil until first successful fetch
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFeed carries the fields of a feed before it has a database identity.
type NewFeed struct {
	Title       string
	URL         string
	SiteURL     string
	Description string
}

type Article struct {
	ID          int64
	FeedID      int64
	GUID        string
	Title       string
	URL         string
	Author      string
	Content     string // raw markup as served by the feed
	ContentText string // plain-text rendering, may be empty
	PublishedAt *time.Time
	FetchedAt   time.Time
	FeedTitle   string // joined from feeds for display
}

// NewArticle is a candidate article not yet reconciled against the store.
type NewArticle struct {
	FeedID      int64
	GUID        string
	Title       string
	URL         string
	Author      string
	Content     string
	ContentText string
	PublishedAt *time.Time
}

type Summary struct {
	ID           int64
	ArticleID    int64
	Content      string
	ModelVersion string
	GeneratedAt  time.Time
}

type Bookmark struct {
	ID         int64
	ArticleID  int64
	RaindropID int64
	Tags       []string
	SavedAt    time.Time
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

// parseTime reads a stored timestamp, accepting both RFC 3339 and SQLite's
// datetime('now') format. Returns false when the value cannot be parsed.
func parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// timeOrNow resolves a stored timestamp, falling back to the current time on
// corrupt values so a single bad row never blocks a listing.
func timeOrNow(s sql.NullString) time.Time {
	if s.Valid {
		if t, ok := parseTime(s.String); ok {
			return t
		}
	}
	return time.Now().UTC()
}

// timeOrNil resolves a nullable stored timestamp; corrupt values read as nil.
func timeOrNil(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, ok := parseTime(s.String)
	if !ok {
		return nil
	}
	return &t
}

// formatTime renders a timestamp for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
