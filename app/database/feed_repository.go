package database

import (
	"database/sql"
	"fmt"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// InsertFeed inserts a new feed and returns its database id.
func (r *FeedRepository) InsertFeed(feed NewFeed) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO feeds (title, url, site_url, description)
		VALUES (?, ?, ?, ?)
	`, feed.Title, feed.URL, nullable(feed.SiteURL), nullable(feed.Description))
	if err != nil {
		return 0, fmt.Errorf("failed to insert feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted feed id: %w", err)
	}

	return id, nil
}

// GetAllFeeds returns all feeds ordered by title
func (r *FeedRepository) GetAllFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, title, url, COALESCE(site_url, ''), COALESCE(description, ''),
		       last_fetched, created_at, updated_at
		FROM feeds
		ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		var lastFetched, createdAt, updatedAt sql.NullString
		err := rows.Scan(&feed.ID, &feed.Title, &feed.URL, &feed.SiteURL,
			&feed.Description, &lastFetched, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feed.LastFetched = timeOrNil(lastFetched)
		feed.CreatedAt = timeOrNow(createdAt)
		feed.UpdatedAt = timeOrNow(updatedAt)
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// GetFeedByURL retrieves a feed by its fetch URL, nil if absent.
func (r *FeedRepository) GetFeedByURL(url string) (*Feed, error) {
	var feed Feed
	var lastFetched, createdAt, updatedAt sql.NullString
	err := r.db.QueryRow(`
		SELECT id, title, url, COALESCE(site_url, ''), COALESCE(description, ''),
		       last_fetched, created_at, updated_at
		FROM feeds
		WHERE url = ?
	`, url).Scan(&feed.ID, &feed.Title, &feed.URL, &feed.SiteURL,
		&feed.Description, &lastFetched, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}

	feed.LastFetched = timeOrNil(lastFetched)
	feed.CreatedAt = timeOrNow(createdAt)
	feed.UpdatedAt = timeOrNow(updatedAt)
	return &feed, nil
}

// UpdateFeedLastFetched stamps a feed after a successful fetch.
func (r *FeedRepository) UpdateFeedLastFetched(id int64) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_fetched = datetime('now'), updated_at = datetime('now')
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to update feed last_fetched: %w", err)
	}
	return nil
}

// DeleteFeed removes a feed; its articles, summaries, bookmarks and
// tombstones go with it.
func (r *FeedRepository) DeleteFeed(id int64) error {
	// Dependents of this feed's articles reference article ids, which the
	// feed_id cascade does not reach.
	_, err := r.db.Exec(`
		DELETE FROM summaries WHERE article_id IN (
			SELECT id FROM articles WHERE feed_id = ?
		)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed summaries: %w", err)
	}

	_, err = r.db.Exec(`
		DELETE FROM bookmarks WHERE article_id IN (
			SELECT id FROM articles WHERE feed_id = ?
		)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed bookmarks: %w", err)
	}

	_, err = r.db.Exec("DELETE FROM feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// GetFeedCount returns the total number of feeds
func (r *FeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
