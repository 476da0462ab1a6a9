package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
)

// RefreshHeadlinesTask fetches the default headline set (no filters, page
// zero) from one source and stores the normalized articles, so /stats and
// content extraction have a local history to work against.
type RefreshHeadlinesTask struct {
	Task
	SourceConfig *news.SourceConfig
	source       news.Source
	articleRepo  database.ArticleRepository
}

func NewRefreshHeadlinesTask(sourceConfig *news.SourceConfig, source news.Source, articleRepo database.ArticleRepository) *RefreshHeadlinesTask {
	return &RefreshHeadlinesTask{
		Task:         NewTask(TaskTypeRefreshHeadlines, sourceConfig.Source),
		SourceConfig: sourceConfig,
		source:       source,
		articleRepo:  articleRepo,
	}
}

func (t *RefreshHeadlinesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	articles := t.source.FetchArticles(fetchCtx, news.SearchParams{})
	if len(articles) == 0 {
		return fmt.Errorf("source returned no headlines")
	}

	storedCount := 0
	for _, article := range articles {
		stored := database.StoredArticle{
			ExternalID:  article.ID,
			Source:      article.Source,
			Title:       article.Title,
			Description: article.Description,
			Author:      article.Author,
			URL:         article.URL,
			ImageURL:    article.ImageURL,
			Category:    article.Category,
			FetchedAt:   time.Now().UTC(),
		}

		if publishedAt := news.ParsePublishedAt(article.PublishedAt); !publishedAt.IsZero() {
			stored.PublishedAt = &publishedAt
		}

		if err := t.articleRepo.UpsertArticle(stored); err != nil {
			return fmt.Errorf("failed to store article: %w", err)
		}
		storedCount++
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"fetched", len(articles),
		"stored", storedCount)

	return nil
}
