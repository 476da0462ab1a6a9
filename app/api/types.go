package api

import (
	"context"

	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
)

type NewsFetcherInterface interface {
	FetchAll(ctx context.Context, filters news.SearchParams, enabledSources []string, page int) []news.Article
}

var _ NewsFetcherInterface = (*news.Aggregator)(nil)

type GeneratorInterface interface {
	Run(articles []news.Article, title string) (string, error)
}

var _ GeneratorInterface = (*Generator)(nil)

// ArticleCache is satisfied by cache.Cache. A nil value disables caching.
type ArticleCache interface {
	GenerateNewsKey(params news.SearchParams, enabledSources []string, page int) string
	GetArticles(ctx context.Context, key string) ([]news.Article, bool, error)
	SetArticles(ctx context.Context, key string, articles []news.Article) error
}

type Handler struct {
	fetcher        NewsFetcherInterface
	generator      GeneratorInterface
	configCache    *news.ConfigCache
	articleRepo    database.ArticleRepository
	preferenceRepo database.PreferenceRepository
	articleCache   ArticleCache
}

type NewsResponse struct {
	Articles []news.Article `json:"articles"`
	Count    int            `json:"count"`
	Page     int            `json:"page"`
	Sources  []string       `json:"sources"`
}
