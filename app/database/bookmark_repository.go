package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// BookmarkRepository tracks which articles have been saved to the remote
// bookmarking service. Presence of a row is the sole source of truth for
// "already bookmarked" state.
type BookmarkRepository struct {
	db *DB
}

// NewBookmarkRepository creates a new bookmark repository
func NewBookmarkRepository(db *DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// MarkBookmarked records a successful save, replacing any earlier record
// for the same article.
func (r *BookmarkRepository) MarkBookmarked(articleID, raindropID int64, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO bookmarks (article_id, raindrop_id, tags)
		VALUES (?, ?, ?)
	`, articleID, raindropID, string(tagsJSON))
	if err != nil {
		return fmt.Errorf("failed to mark bookmarked: %w", err)
	}
	return nil
}

// IsBookmarked reports whether the article has a bookmark record.
func (r *BookmarkRepository) IsBookmarked(articleID int64) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM bookmarks WHERE article_id = ?", articleID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return count > 0, nil
}

// GetBookmarkedArticleIDs returns the id of every article that has a
// bookmark record.
func (r *BookmarkRepository) GetBookmarkedArticleIDs() (map[int64]bool, error) {
	rows, err := r.db.Query("SELECT article_id FROM bookmarks")
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarked articles: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark row: %w", err)
		}
		ids[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmark rows: %w", err)
	}

	return ids, nil
}

// GetBookmark retrieves the bookmark record for an article, nil if none.
func (r *BookmarkRepository) GetBookmark(articleID int64) (*Bookmark, error) {
	var bookmark Bookmark
	var tagsJSON string
	var savedAt sql.NullString
	err := r.db.QueryRow(`
		SELECT id, article_id, raindrop_id, tags, saved_at
		FROM bookmarks
		WHERE article_id = ?
	`, articleID).Scan(&bookmark.ID, &bookmark.ArticleID, &bookmark.RaindropID,
		&tagsJSON, &savedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	if err := json.Unmarshal([]byte(tagsJSON), &bookmark.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	bookmark.SavedAt = timeOrNow(savedAt)
	return &bookmark, nil
}
