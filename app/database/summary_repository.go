package database

import (
	"database/sql"
	"fmt"
)

// SummaryRepository handles database operations for generated summaries
type SummaryRepository struct {
	db *DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// SaveSummary stores a generated summary, replacing content, model version
// and generation time together when one already exists for the article.
// The foreign key check makes a save against a deleted article fail rather
// than leave a dangling row.
func (r *SummaryRepository) SaveSummary(articleID int64, content, modelVersion string) error {
	_, err := r.db.Exec(`
		INSERT INTO summaries (article_id, content, model_version)
		VALUES (?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET
			content = excluded.content,
			model_version = excluded.model_version,
			generated_at = datetime('now')
	`, articleID, content, modelVersion)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// GetSummary retrieves the summary for an article, nil if none exists.
func (r *SummaryRepository) GetSummary(articleID int64) (*Summary, error) {
	var summary Summary
	var generatedAt sql.NullString
	err := r.db.QueryRow(`
		SELECT id, article_id, content, model_version, generated_at
		FROM summaries
		WHERE article_id = ?
	`, articleID).Scan(&summary.ID, &summary.ArticleID, &summary.Content,
		&summary.ModelVersion, &generatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	summary.GeneratedAt = timeOrNow(generatedAt)
	return &summary, nil
}
