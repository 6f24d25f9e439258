package database

import (
	"database/sql"
	"fmt"
)

// ArticleRepository handles database operations for articles and their
// deletion tombstones
type ArticleRepository struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// UpsertArticle reconciles a candidate article against the store. A
// tombstone on (feed_id, guid) suppresses the write entirely and returns
// ok=false; otherwise the article is inserted, or its mutable fields are
// overwritten in place when the (feed_id, guid) pair already exists.
// fetched_at of an existing row is preserved.
func (r *ArticleRepository) UpsertArticle(article NewArticle) (int64, bool, error) {
	var tombstoned int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM deleted_articles WHERE feed_id = ? AND guid = ?
	`, article.FeedID, article.GUID).Scan(&tombstoned)
	if err != nil {
		return 0, false, fmt.Errorf("failed to check tombstone: %w", err)
	}
	if tombstoned > 0 {
		return 0, false, nil
	}

	var publishedAt any
	if article.PublishedAt != nil {
		publishedAt = formatTime(*article.PublishedAt)
	}

	var id int64
	err = r.db.QueryRow(`
		INSERT INTO articles (feed_id, guid, title, url, author, content, content_text, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_id, guid) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			author = excluded.author,
			content = excluded.content,
			content_text = excluded.content_text,
			published_at = excluded.published_at
		RETURNING id
	`, article.FeedID, article.GUID, article.Title, article.URL,
		nullable(article.Author), nullable(article.Content),
		nullable(article.ContentText), publishedAt).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to upsert article: %w", err)
	}

	return id, true, nil
}

// GetAllArticles returns every article joined with its feed title, newest
// first. Articles without a published time sort by fetch time.
func (r *ArticleRepository) GetAllArticles() ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT a.id, a.feed_id, a.guid, a.title, a.url,
		       COALESCE(a.author, ''), COALESCE(a.content, ''), COALESCE(a.content_text, ''),
		       a.published_at, a.fetched_at, f.title
		FROM articles a
		JOIN feeds f ON a.feed_id = f.id
		ORDER BY a.published_at IS NULL, a.published_at DESC, a.fetched_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		var publishedAt, fetchedAt sql.NullString
		err := rows.Scan(&article.ID, &article.FeedID, &article.GUID,
			&article.Title, &article.URL, &article.Author,
			&article.Content, &article.ContentText,
			&publishedAt, &fetchedAt, &article.FeedTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		article.PublishedAt = timeOrNil(publishedAt)
		article.FetchedAt = timeOrNow(fetchedAt)
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// GetArticle retrieves a single article by id, nil if absent.
func (r *ArticleRepository) GetArticle(id int64) (*Article, error) {
	var article Article
	var publishedAt, fetchedAt sql.NullString
	err := r.db.QueryRow(`
		SELECT a.id, a.feed_id, a.guid, a.title, a.url,
		       COALESCE(a.author, ''), COALESCE(a.content, ''), COALESCE(a.content_text, ''),
		       a.published_at, a.fetched_at, f.title
		FROM articles a
		JOIN feeds f ON a.feed_id = f.id
		WHERE a.id = ?
	`, id).Scan(&article.ID, &article.FeedID, &article.GUID,
		&article.Title, &article.URL, &article.Author,
		&article.Content, &article.ContentText,
		&publishedAt, &fetchedAt, &article.FeedTitle)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	article.PublishedAt = timeOrNil(publishedAt)
	article.FetchedAt = timeOrNow(fetchedAt)
	return &article, nil
}

// DeleteArticle removes an article in three individually idempotent steps:
// tombstone its (feed_id, guid) so ingestion cannot resurrect it, remove
// dependents, remove the row. A crash between steps can be resumed by
// calling DeleteArticle again.
func (r *ArticleRepository) DeleteArticle(id int64) error {
	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO deleted_articles (feed_id, guid)
		SELECT feed_id, guid FROM articles WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to record tombstone: %w", err)
	}

	if _, err := r.db.Exec("DELETE FROM summaries WHERE article_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete article summary: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM bookmarks WHERE article_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete article bookmark: %w", err)
	}

	if _, err := r.db.Exec("DELETE FROM articles WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	return nil
}

// UndeleteArticle removes the tombstone for (feed_id, guid), making the
// entry ingestible again on the next refresh.
func (r *ArticleRepository) UndeleteArticle(feedID int64, guid string) error {
	_, err := r.db.Exec(`
		DELETE FROM deleted_articles WHERE feed_id = ? AND guid = ?
	`, feedID, guid)
	if err != nil {
		return fmt.Errorf("failed to remove tombstone: %w", err)
	}
	return nil
}

// DeleteOldArticles removes articles older than the retention window,
// dependents first. Age is judged by published_at, falling back to
// fetched_at for articles that never carried a published time.
func (r *ArticleRepository) DeleteOldArticles(days int) (int64, error) {
	const oldArticles = `
		SELECT id FROM articles
		WHERE datetime(published_at) < datetime('now', '-' || ? || ' days')
		   OR (published_at IS NULL AND datetime(fetched_at) < datetime('now', '-' || ? || ' days'))
	`

	_, err := r.db.Exec("DELETE FROM summaries WHERE article_id IN ("+oldArticles+")", days, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old summaries: %w", err)
	}
	_, err = r.db.Exec("DELETE FROM bookmarks WHERE article_id IN ("+oldArticles+")", days, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old bookmarks: %w", err)
	}

	result, err := r.db.Exec(`
		DELETE FROM articles
		WHERE datetime(published_at) < datetime('now', '-' || ? || ' days')
		   OR (published_at IS NULL AND datetime(fetched_at) < datetime('now', '-' || ? || ' days'))
	`, days, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old articles: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted articles: %w", err)
	}
	return deleted, nil
}

// CompactDatabase applies retention, prunes tombstones older than the same
// window, and reclaims file space. Pruned tombstones mean a long-gone entry
// could in principle be re-ingested; an accepted trade-off of bounded
// tombstone retention.
func (r *ArticleRepository) CompactDatabase(days int) (int64, error) {
	deleted, err := r.DeleteOldArticles(days)
	if err != nil {
		return 0, err
	}

	_, err = r.db.Exec(`
		DELETE FROM deleted_articles
		WHERE datetime(deleted_at) < datetime('now', '-' || ? || ' days')
	`, days)
	if err != nil {
		return 0, fmt.Errorf("failed to prune tombstones: %w", err)
	}

	if _, err := r.db.Exec("VACUUM"); err != nil {
		return 0, fmt.Errorf("failed to vacuum database: %w", err)
	}

	return deleted, nil
}
