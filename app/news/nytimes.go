package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const nytimesBaseURL = "https://api.nytimes.com/svc"

// Base URL used to repair relative image paths in search documents.
const nytimesStaticBaseURL = "https://static01.nyt.com/"

// nytimesSectionMap resolves categories into top-stories section paths.
var nytimesSectionMap = map[string]string{
	CategoryTechnology:    "technology",
	CategoryBusiness:      "business",
	CategorySports:        "sports",
	CategoryHealth:        "health",
	CategoryScience:       "science",
	CategoryEntertainment: "arts",
	CategoryGeneral:       "home",
}

// nytimesSearchVocabularyMap resolves categories into the section/desk
// names used by the article search filter query. This is a distinct
// vocabulary from the top-stories section paths.
var nytimesSearchVocabularyMap = map[string]string{
	CategoryTechnology:    "Technology",
	CategoryBusiness:      "Business",
	CategorySports:        "Sports",
	CategoryHealth:        "Health",
	CategoryScience:       "Science",
	CategoryEntertainment: "Arts",
	CategoryGeneral:       "U.S.",
}

var nytimesBylinePrefix = regexp.MustCompile(`(?i)^by\s+`)

// NYTimesClient queries the New York Times top-stories and article search
// APIs. Three modes, in priority order: full-text search (keyword or date
// range present), multi-section top stories (categories list present),
// and single-section top stories (default).
type NYTimesClient struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNYTimesClient(apiKey, userAgent string, httpClient *http.Client) *NYTimesClient {
	return &NYTimesClient{
		apiKey:     apiKey,
		baseURL:    nytimesBaseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (s *NYTimesClient) Name() string {
	return SourceNYTimes
}

func (s *NYTimesClient) FetchArticles(ctx context.Context, params SearchParams) []Article {
	var articles []Article
	var err error

	switch {
	case params.Keyword != "" || params.DateRange != nil:
		articles, err = s.fetchSearch(ctx, params)
	case len(params.Categories) > 0:
		articles, err = s.fetchTopStoriesMulti(ctx, params)
	default:
		articles, err = s.fetchTopStories(ctx, params)
	}

	if err != nil {
		slog.Error("NYTimes request failed", "error", err)
		return nil
	}
	return articles
}

// fetchTopStories serves the default single-section mode. The top-stories
// endpoint has no pagination, so any page past the first yields nothing
// without a network call.
func (s *NYTimesClient) fetchTopStories(ctx context.Context, params SearchParams) ([]Article, error) {
	if params.Page > 0 {
		return nil, nil
	}

	section := "home"
	if mapped, ok := nytimesSectionMap[params.Category]; ok && params.Category != "" {
		section = mapped
	}

	items, err := s.fetchSection(ctx, section)
	if err != nil {
		return nil, err
	}

	return s.normalizeTopStories(items), nil
}

func (s *NYTimesClient) fetchTopStoriesMulti(ctx context.Context, params SearchParams) ([]Article, error) {
	if params.Page > 0 {
		return nil, nil
	}

	// Resolve categories to distinct sections, dropping unmapped ones.
	var sections []string
	seen := make(map[string]bool)
	for _, category := range params.Categories {
		section, ok := nytimesSectionMap[category]
		if !ok || seen[section] {
			continue
		}
		seen[section] = true
		sections = append(sections, section)
	}

	results := make([][]nytimesTopStoryRaw, len(sections))
	var wg sync.WaitGroup
	for i, section := range sections {
		wg.Add(1)
		go func(i int, section string) {
			defer wg.Done()
			items, err := s.fetchSection(ctx, section)
			if err != nil {
				slog.Warn("NYTimes section request failed", "section", section, "error", err)
				return
			}
			results[i] = items
		}(i, section)
	}
	wg.Wait()

	// De-duplicate by canonical URL over the fixed section order: later
	// sections overwrite earlier entries, first occurrence keeps its slot.
	var order []string
	unique := make(map[string]nytimesTopStoryRaw)
	for _, items := range results {
		for _, item := range items {
			if _, exists := unique[item.URL]; !exists {
				order = append(order, item.URL)
			}
			unique[item.URL] = item
		}
	}

	merged := make([]nytimesTopStoryRaw, 0, len(order))
	for _, u := range order {
		merged = append(merged, unique[u])
	}

	return s.normalizeTopStories(merged), nil
}

func (s *NYTimesClient) fetchSection(ctx context.Context, section string) ([]nytimesTopStoryRaw, error) {
	query := url.Values{}
	query.Set("api-key", s.apiKey)

	endpoint := fmt.Sprintf("%s/topstories/v2/%s.json", s.baseURL, section)

	var resp nytimesTopStoriesResponse
	if err := fetchJSON(ctx, s.httpClient, s.userAgent, endpoint, query, &resp); err != nil {
		return nil, fmt.Errorf("top stories request failed for section %s: %w", section, err)
	}

	// Internal admin entries and untitled placeholders are never shown.
	items := make([]nytimesTopStoryRaw, 0, len(resp.Results))
	for _, item := range resp.Results {
		if item.Section == "admin" || item.Title == "" {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func (s *NYTimesClient) fetchSearch(ctx context.Context, params SearchParams) ([]Article, error) {
	query := url.Values{}
	query.Set("api-key", s.apiKey)
	query.Set("page", strconv.Itoa(params.Page))

	if params.Keyword != "" {
		query.Set("q", params.Keyword)
	} else {
		// Without free-text relevance to rank by, ask for newest first.
		query.Set("sort", "newest")
	}

	if params.DateRange != nil {
		query.Set("begin_date", params.DateRange.From.Format("20060102"))
		if params.DateRange.To != nil {
			query.Set("end_date", params.DateRange.To.Format("20060102"))
		}
	}

	query.Set("fq", s.buildFilterQuery(params))

	var resp nytimesSearchResponse
	if err := fetchJSON(ctx, s.httpClient, s.userAgent, s.baseURL+"/search/v2/articlesearch.json", query, &resp); err != nil {
		return nil, fmt.Errorf("article search request failed: %w", err)
	}

	return s.normalizeSearchDocs(resp.Response.Docs), nil
}

// buildFilterQuery composes the boolean filter sent to article search.
// Recipe and food-desk content is always excluded; a mapped singular
// category additionally restricts to matching section or news desk.
func (s *NYTimesClient) buildFilterQuery(params SearchParams) string {
	parts := []string{
		`-type_of_material:("Recipe" "Ingredient")`,
		`-news_desk:("Food" "Cooking" "Dining")`,
	}

	if params.Category != "" {
		if name, ok := nytimesSearchVocabularyMap[params.Category]; ok {
			parts = append(parts, fmt.Sprintf(`(section_name:(%q) OR news_desk:(%q))`, name, name))
		}
	}

	return strings.Join(parts, " AND ")
}

func (s *NYTimesClient) normalizeTopStories(items []nytimesTopStoryRaw) []Article {
	articles := make([]Article, 0, len(items))
	for _, item := range items {
		id := item.URI
		if id == "" {
			id = item.URL
		}

		author := nytimesBylinePrefix.ReplaceAllString(item.Byline, "")
		if author == "" {
			author = SourceNYTimes
		}

		imageURL := PlaceholderImageURL
		if len(item.Multimedia) > 0 && item.Multimedia[0].URL != "" {
			imageURL = item.Multimedia[0].URL
		}

		articles = append(articles, Article{
			ID:          id,
			Title:       item.Title,
			Description: item.Abstract,
			Author:      author,
			PublishedAt: item.PublishedDate,
			Source:      SourceNYTimes,
			URL:         item.URL,
			ImageURL:    imageURL,
		})
	}
	return articles
}

func (s *NYTimesClient) normalizeSearchDocs(docs []nytimesSearchDocRaw) []Article {
	articles := make([]Article, 0, len(docs))
	for _, doc := range docs {
		title := doc.Headline.Main
		if title == "" {
			title = "Untitled"
		}

		description := doc.Snippet
		if description == "" {
			description = doc.Abstract
		}

		author := nytimesBylinePrefix.ReplaceAllString(doc.Byline.Original, "")
		if author == "" {
			author = SourceNYTimes
		}

		imageURL := PlaceholderImageURL
		if doc.Multimedia != nil && doc.Multimedia.Default.URL != "" {
			raw := doc.Multimedia.Default.URL
			if strings.HasPrefix(raw, "http") {
				imageURL = raw
			} else {
				// Search documents may carry asset paths relative to the
				// static CDN.
				imageURL = nytimesStaticBaseURL + raw
			}
		}

		articles = append(articles, Article{
			ID:          doc.ID,
			Title:       title,
			Description: description,
			Author:      author,
			PublishedAt: doc.PubDate,
			Source:      SourceNYTimes,
			URL:         doc.WebURL,
			ImageURL:    imageURL,
		})
	}
	return articles
}

// NYT API response shapes. Top-stories items and search documents are
// structurally different and converge in normalization.

type nytimesTopStoriesResponse struct {
	Status  string               `json:"status"`
	Section string               `json:"section"`
	Results []nytimesTopStoryRaw `json:"results"`
}

type nytimesTopStoryRaw struct {
	Section       string `json:"section"`
	Subsection    string `json:"subsection"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	URL           string `json:"url"`
	URI           string `json:"uri"`
	Byline        string `json:"byline"`
	PublishedDate string `json:"published_date"`
	Multimedia    []struct {
		URL    string `json:"url"`
		Format string `json:"format"`
		Type   string `json:"type"`
	} `json:"multimedia"`
}

type nytimesSearchResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []nytimesSearchDocRaw `json:"docs"`
	} `json:"response"`
}

type nytimesSearchDocRaw struct {
	ID       string `json:"_id"`
	WebURL   string `json:"web_url"`
	Snippet  string `json:"snippet"`
	Abstract string `json:"abstract"`
	PubDate  string `json:"pub_date"`
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	Byline struct {
		Original string `json:"original"`
	} `json:"byline"`
	Multimedia *struct {
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"multimedia"`
	NewsDesk    string `json:"news_desk"`
	SectionName string `json:"section_name"`
}
