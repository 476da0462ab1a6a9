package database

import (
	"time"
)

type StoredArticle struct {
	ID                      int64
	ExternalID              string // Provider-defined identifier (URL, URI, or document ID)
	Source                  string // Display name from the source enumeration
	Title                   string
	Description             string
	Author                  string
	URL                     string
	ImageURL                string
	Category                string
	PublishedAt             *time.Time
	FetchedAt               time.Time
	Content                 string
	ContentExtractedAt      *time.Time
	ContentExtractionStatus string // pending, success, failed
	ContentExtractionError  string
}

type Preference struct {
	Profile        string
	EnabledSources []string
	Categories     []string
	UpdatedAt      time.Time
}

type ArticleForExtraction struct {
	ID  int64
	URL string
}
