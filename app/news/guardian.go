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

const guardianBaseURL = "https://content.guardianapis.com"

// guardianSectionMap translates the shared category vocabulary into the
// Guardian's section taxonomy. Unmapped categories pass through raw.
var guardianSectionMap = map[string]string{
	CategorySports:        "sport",
	CategoryHealth:        "society",
	CategoryEntertainment: "culture",
}

// GuardianClient queries the Guardian content search API.
type GuardianClient struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewGuardianClient(apiKey, userAgent string, httpClient *http.Client) *GuardianClient {
	return &GuardianClient{
		apiKey:     apiKey,
		baseURL:    guardianBaseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

func (s *GuardianClient) Name() string {
	return SourceGuardian
}

func (s *GuardianClient) FetchArticles(ctx context.Context, params SearchParams) []Article {
	articles, err := s.fetch(ctx, params)
	if err != nil {
		slog.Error("Guardian request failed", "error", err)
		return nil
	}
	return articles
}

func (s *GuardianClient) fetch(ctx context.Context, params SearchParams) ([]Article, error) {
	query := url.Values{}
	query.Set("api-key", s.apiKey)
	query.Set("show-fields", "headline,trailText,byline,thumbnail")
	query.Set("show-elements", "image")
	query.Set("page-size", strconv.Itoa(defaultPageSize))
	query.Set("page", strconv.Itoa(params.Page+1))

	if params.Keyword != "" {
		query.Set("q", params.Keyword)
	}

	if params.Category != "" {
		query.Set("section", guardianSection(params.Category))
	}

	// A non-empty categories list overrides the singular category filter.
	if len(params.Categories) > 0 {
		sections := make([]string, 0, len(params.Categories))
		for _, category := range params.Categories {
			sections = append(sections, guardianSection(category))
		}
		query.Set("section", strings.Join(sections, "|"))
	}

	if params.DateRange != nil {
		query.Set("from-date", params.DateRange.From.Format("2006-01-02"))
		if params.DateRange.To != nil {
			query.Set("to-date", params.DateRange.To.Format("2006-01-02"))
		}
	}

	var resp guardianResponse
	if err := fetchJSON(ctx, s.httpClient, s.userAgent, s.baseURL+"/search", query, &resp); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}

	articles := make([]Article, 0, len(resp.Response.Results))
	for _, item := range resp.Response.Results {
		articles = append(articles, s.normalize(item))
	}

	return articles, nil
}

func (s *GuardianClient) normalize(item guardianArticleRaw) Article {
	description := item.Fields.TrailText

	author := item.Fields.Byline
	if author == "" {
		author = SourceGuardian
	}

	imageURL := s.largestMainImage(item)
	if imageURL == "" {
		imageURL = item.Fields.Thumbnail
	}
	if imageURL == "" {
		imageURL = PlaceholderImageURL
	}

	return Article{
		ID:          item.ID,
		Title:       item.WebTitle,
		Description: description,
		Author:      author,
		PublishedAt: item.WebPublicationDate,
		Source:      SourceGuardian,
		URL:         item.WebURL,
		ImageURL:    imageURL,
	}
}

// largestMainImage picks the asset with the numerically largest declared
// width from the first "main" image element. Widths are string-encoded;
// missing or invalid values count as zero.
func (s *GuardianClient) largestMainImage(item guardianArticleRaw) string {
	for _, element := range item.Elements {
		if element.Relation != "main" || element.Type != "image" {
			continue
		}

		var bestFile string
		bestWidth := -1
		for _, asset := range element.Assets {
			width, err := strconv.Atoi(asset.TypeData.Width)
			if err != nil {
				width = 0
			}
			if width > bestWidth {
				bestWidth = width
				bestFile = asset.File
			}
		}
		return bestFile
	}
	return ""
}

// Guardian API response shapes

type guardianResponse struct {
	Response struct {
		Status  string               `json:"status"`
		Results []guardianArticleRaw `json:"results"`
	} `json:"response"`
}

type guardianArticleRaw struct {
	ID                 string `json:"id"`
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	WebPublicationDate string `json:"webPublicationDate"`
	SectionName        string `json:"sectionName"`
	Fields             struct {
		Headline  string `json:"headline"`
		TrailText string `json:"trailText"`
		Byline    string `json:"byline"`
		Thumbnail string `json:"thumbnail"`
	} `json:"fields"`
	Elements []struct {
		Relation string `json:"relation"`
		Type     string `json:"type"`
		Assets   []struct {
			File     string `json:"file"`
			TypeData struct {
				Width  string `json:"width"`
				Height string `json:"height"`
			} `json:"typeData"`
		} `json:"assets"`
	} `json:"elements"`
}

func guardianSection(category string) string {
	if section, ok := guardianSectionMap[category]; ok {
		return section
	}
	return category
}
