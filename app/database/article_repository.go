package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

type ArticleRepositoryImpl struct {
	db *DB
}

func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

// UpsertArticle stores a fetched article, keyed by its canonical URL.
// Re-fetching refreshes the metadata but leaves extraction bookkeeping
// untouched so already-extracted content survives.
func (r *ArticleRepositoryImpl) UpsertArticle(article StoredArticle) error {
	_, err := r.db.Exec(`
		INSERT INTO articles (
			external_id, source, title, description, author,
			url, image_url, category, published_at, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			external_id = excluded.external_id,
			title = excluded.title,
			description = excluded.description,
			author = excluded.author,
			image_url = excluded.image_url,
			category = excluded.category,
			published_at = excluded.published_at,
			fetched_at = excluded.fetched_at
	`, article.ExternalID, article.Source, article.Title, article.Description,
		article.Author, article.URL, article.ImageURL, article.Category,
		article.PublishedAt, article.FetchedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}

	return nil
}

func (r *ArticleRepositoryImpl) GetRecentArticles(source string, limit int) ([]StoredArticle, error) {
	rows, err := r.db.Query(`
		SELECT id, external_id, source, title, description, author,
		       url, image_url, category, published_at, fetched_at,
		       content, content_extracted_at, content_extraction_status,
		       content_extraction_error
		FROM articles
		WHERE source = ?
		ORDER BY COALESCE(published_at, fetched_at) DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}
	defer rows.Close()

	var articles []StoredArticle
	for rows.Next() {
		var article StoredArticle
		err := rows.Scan(
			&article.ID, &article.ExternalID, &article.Source, &article.Title,
			&article.Description, &article.Author, &article.URL, &article.ImageURL,
			&article.Category, &article.PublishedAt, &article.FetchedAt,
			&article.Content, &article.ContentExtractedAt,
			&article.ContentExtractionStatus, &article.ContentExtractionError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepositoryImpl) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *ArticleRepositoryImpl) GetArticleCountBySource() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT source, COUNT(*) FROM articles GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[source] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}

func (r *ArticleRepositoryImpl) GetArticlesForExtraction(source string, limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM articles
		WHERE source = ?
		  AND content_extraction_status = 'pending'
		  AND url != ''
		ORDER BY COALESCE(published_at, fetched_at) DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var article ArticleForExtraction
		if err := rows.Scan(&article.ID, &article.URL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepositoryImpl) UpdateExtractedContent(id int64, content string, extractedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = ?,
		    content_extracted_at = ?,
		    content_extraction_status = 'success',
		    content_extraction_error = ''
		WHERE id = ?
	`, content, extractedAt, id)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func (r *ArticleRepositoryImpl) UpdateExtractionStatus(id int64, status string, extractedAt *time.Time, errorMsg string) error {
	var at sql.NullTime
	if extractedAt != nil {
		at = sql.NullTime{Time: *extractedAt, Valid: true}
	}

	_, err := r.db.Exec(`
		UPDATE articles
		SET content_extraction_status = ?,
		    content_extracted_at = ?,
		    content_extraction_error = ?
		WHERE id = ?
	`, status, at, errorMsg, id)

	if err != nil {
		return fmt.Errorf("failed to update extraction status: %w", err)
	}

	return nil
}
