package database

import (
	"time"
)

type ArticleRepository interface {
	UpsertArticle(article StoredArticle) error
	GetRecentArticles(source string, limit int) ([]StoredArticle, error)
	GetArticleCount() (int, error)
	GetArticleCountBySource() (map[string]int, error)

	GetArticlesForExtraction(source string, limit int) ([]ArticleForExtraction, error)
	UpdateExtractedContent(id int64, content string, extractedAt time.Time) error
	UpdateExtractionStatus(id int64, status string, extractedAt *time.Time, errorMsg string) error
}

type PreferenceRepository interface {
	GetPreference(profile string) (*Preference, error)
	UpsertPreference(pref Preference) error
}
