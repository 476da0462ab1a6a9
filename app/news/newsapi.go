package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// Domains excluded from full-text results because they are covered by
// dedicated adapters.
const newsAPIExcludedDomains = "theguardian.com,nytimes.com"

const newsAPIHeadlineCountry = "us"

// NewsAPIClient queries NewsAPI, switching between the country-scoped
// top-headlines endpoint and the full-text everything endpoint depending
// on which search parameters are present.
type NewsAPIClient struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNewsAPIClient(apiKey, userAgent string, httpClient *http.Client) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:     apiKey,
		baseURL:    newsAPIBaseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (s *NewsAPIClient) Name() string {
	return SourceNewsAPI
}

func (s *NewsAPIClient) FetchArticles(ctx context.Context, params SearchParams) []Article {
	articles, err := s.fetch(ctx, params)
	if err != nil {
		slog.Error("NewsAPI request failed", "error", err)
		return nil
	}
	return articles
}

func (s *NewsAPIClient) fetch(ctx context.Context, params SearchParams) ([]Article, error) {
	useEverything := params.Keyword != "" || params.DateRange != nil || len(params.Categories) > 0

	endpoint := s.baseURL + "/top-headlines"
	if useEverything {
		endpoint = s.baseURL + "/everything"
	}

	query := url.Values{}
	query.Set("apiKey", s.apiKey)
	query.Set("pageSize", strconv.Itoa(defaultPageSize))
	query.Set("page", strconv.Itoa(params.Page+1))

	if useEverything {
		query.Set("excludeDomains", newsAPIExcludedDomains)

		if params.DateRange != nil {
			query.Set("from", params.DateRange.From.Format("2006-01-02"))
			if params.DateRange.To != nil {
				query.Set("to", params.DateRange.To.Format("2006-01-02"))
			}
		}

		query.Set("q", s.buildQuery(params))
		query.Set("sortBy", "publishedAt")
	} else {
		query.Set("country", newsAPIHeadlineCountry)

		// Top headlines use NewsAPI's own category vocabulary, which this
		// adapter shares, so the value passes through unmapped.
		if params.Category != "" {
			query.Set("category", params.Category)
		}
	}

	var resp newsAPIResponse
	if err := fetchJSON(ctx, s.httpClient, s.userAgent, endpoint, query, &resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	articles := make([]Article, 0, len(resp.Articles))
	for _, item := range resp.Articles {
		articles = append(articles, s.normalize(item))
	}

	return articles, nil
}

// buildQuery assembles the free-text query for everything mode. A keyword
// wins; a singular category refines it with AND. Without a keyword, the
// categories list is OR-joined, then the singular category stands alone,
// and with nothing at all a wildcard matches everything.
func (s *NewsAPIClient) buildQuery(params SearchParams) string {
	if params.Keyword != "" {
		if params.Category != "" {
			return fmt.Sprintf("%s AND %s", params.Keyword, params.Category)
		}
		return params.Keyword
	}
	if len(params.Categories) > 0 {
		return strings.Join(params.Categories, " OR ")
	}
	if params.Category != "" {
		return params.Category
	}
	return "*"
}

func (s *NewsAPIClient) normalize(item newsAPIArticleRaw) Article {
	sourceName := item.Source.Name
	if sourceName == "" {
		sourceName = SourceNewsAPI
	}

	author := item.Author
	if author == "" {
		author = sourceName
	}

	imageURL := item.URLToImage
	if imageURL == "" {
		imageURL = PlaceholderImageURL
	}

	return Article{
		ID:          item.URL,
		Title:       item.Title,
		Description: item.Description,
		Author:      author,
		PublishedAt: item.PublishedAt,
		Source:      sourceName,
		URL:         item.URL,
		ImageURL:    imageURL,
	}
}

// NewsAPI response shapes

type newsAPIResponse struct {
	Status       string              `json:"status"`
	TotalResults int                 `json:"totalResults"`
	Articles     []newsAPIArticleRaw `json:"articles"`
}

type newsAPIArticleRaw struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}
