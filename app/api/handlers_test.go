package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
)

type fakeFetcher struct {
	articles   []news.Article
	gotParams  news.SearchParams
	gotSources []string
	gotPage    int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, filters news.SearchParams, enabledSources []string, page int) []news.Article {
	f.gotParams = filters
	f.gotSources = enabledSources
	f.gotPage = page
	if f.articles == nil {
		return []news.Article{}
	}
	return f.articles
}

type fakeArticleRepo struct {
	count    int
	bySource map[string]int
	stored   []database.StoredArticle
}

func (f *fakeArticleRepo) UpsertArticle(article database.StoredArticle) error { return nil }
func (f *fakeArticleRepo) GetRecentArticles(source string, limit int) ([]database.StoredArticle, error) {
	var matched []database.StoredArticle
	for _, article := range f.stored {
		if article.Source == source {
			matched = append(matched, article)
		}
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
func (f *fakeArticleRepo) GetArticleCount() (int, error) { return f.count, nil }
func (f *fakeArticleRepo) GetArticleCountBySource() (map[string]int, error) {
	return f.bySource, nil
}
func (f *fakeArticleRepo) GetArticlesForExtraction(source string, limit int) ([]database.ArticleForExtraction, error) {
	return nil, nil
}
func (f *fakeArticleRepo) UpdateExtractedContent(id int64, content string, extractedAt time.Time) error {
	return nil
}
func (f *fakeArticleRepo) UpdateExtractionStatus(id int64, status string, extractedAt *time.Time, errorMsg string) error {
	return nil
}

type fakePreferenceRepo struct {
	prefs map[string]*database.Preference
}

func (f *fakePreferenceRepo) GetPreference(profile string) (*database.Preference, error) {
	if f.prefs == nil {
		return nil, nil
	}
	return f.prefs[profile], nil
}

func (f *fakePreferenceRepo) UpsertPreference(pref database.Preference) error {
	if f.prefs == nil {
		f.prefs = make(map[string]*database.Preference)
	}
	f.prefs[pref.Profile] = &pref
	return nil
}

func newTestConfigCache(t *testing.T) *news.ConfigCache {
	t.Helper()
	tempDir := t.TempDir()

	files := map[string]string{
		"guardian.yml": "source: \"The Guardian\"\nsettings:\n  enabled: true\n",
		"nytimes.yml":  "source: \"New York Times\"\nsettings:\n  enabled: true\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configCache := news.NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}
	return configCache
}

func newTestServer(t *testing.T, fetcher *fakeFetcher, prefRepo *fakePreferenceRepo, apiAccessKey string) *gin.Engine {
	t.Helper()
	setupTestConfig()
	handler := NewHandler(fetcher, newTestConfigCache(t), &fakeArticleRepo{count: 7}, prefRepo, nil)
	return NewServer(handler, apiAccessKey)
}

func TestGetNewsDefaults(t *testing.T) {
	fetcher := &fakeFetcher{articles: []news.Article{
		{ID: "a", Title: "One", PublishedAt: "2024-03-02T10:00:00Z", Source: news.SourceGuardian},
	}}
	server := newTestServer(t, fetcher, &fakePreferenceRepo{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/news", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp NewsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected valid JSON response, got: %v", err)
	}

	if resp.Count != 1 {
		t.Errorf("Expected count 1, got %d", resp.Count)
	}
	if resp.Page != 0 {
		t.Errorf("Expected page 0, got %d", resp.Page)
	}

	// No override and no stored preference: enabled configs win
	if len(fetcher.gotSources) != 2 {
		t.Fatalf("Expected 2 enabled sources, got %v", fetcher.gotSources)
	}
	if fetcher.gotSources[0] != news.SourceGuardian || fetcher.gotSources[1] != news.SourceNYTimes {
		t.Errorf("Expected enabled config sources, got %v", fetcher.gotSources)
	}
}

func TestGetNewsQueryParameters(t *testing.T) {
	fetcher := &fakeFetcher{}
	server := newTestServer(t, fetcher, &fakePreferenceRepo{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/news?q=climate&category=science&categories=science,health&from=2024-03-01&to=2024-03-10&page=2", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	if fetcher.gotParams.Keyword != "climate" {
		t.Errorf("Expected keyword 'climate', got '%s'", fetcher.gotParams.Keyword)
	}
	if fetcher.gotParams.Category != "science" {
		t.Errorf("Expected category 'science', got '%s'", fetcher.gotParams.Category)
	}
	if len(fetcher.gotParams.Categories) != 2 {
		t.Errorf("Expected 2 categories, got %v", fetcher.gotParams.Categories)
	}
	if fetcher.gotParams.DateRange == nil {
		t.Fatal("Expected a date range")
	}
	if fetcher.gotParams.DateRange.From.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("Expected from 2024-03-01, got %v", fetcher.gotParams.DateRange.From)
	}
	if fetcher.gotParams.DateRange.To == nil || fetcher.gotParams.DateRange.To.Format("2006-01-02") != "2024-03-10" {
		t.Errorf("Expected to 2024-03-10, got %v", fetcher.gotParams.DateRange.To)
	}
	if fetcher.gotPage != 2 {
		t.Errorf("Expected page 2, got %d", fetcher.gotPage)
	}
}

func TestGetNewsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad from date", "/news?from=03-01-2024"},
		{"to without from", "/news?to=2024-03-10"},
		{"bad page", "/news?page=abc"},
		{"negative page", "/news?page=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &fakeFetcher{}, &fakePreferenceRepo{}, "")

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", tt.url, nil)
			server.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestGetNewsSourcesOverride(t *testing.T) {
	fetcher := &fakeFetcher{}
	prefRepo := &fakePreferenceRepo{prefs: map[string]*database.Preference{
		"default": {Profile: "default", EnabledSources: []string{news.SourceNYTimes}},
	}}
	server := newTestServer(t, fetcher, prefRepo, "")

	// Explicit override beats the stored preference
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/news?sources=NewsAPI", nil)
	server.ServeHTTP(w, req)

	if len(fetcher.gotSources) != 1 || fetcher.gotSources[0] != news.SourceNewsAPI {
		t.Errorf("Expected override sources [NewsAPI], got %v", fetcher.gotSources)
	}

	// Without an override the stored preference wins
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/news", nil)
	server.ServeHTTP(w, req)

	if len(fetcher.gotSources) != 1 || fetcher.gotSources[0] != news.SourceNYTimes {
		t.Errorf("Expected preference sources [New York Times], got %v", fetcher.gotSources)
	}
}

func TestGetNewsRSS(t *testing.T) {
	fetcher := &fakeFetcher{articles: []news.Article{
		{ID: "https://example.com/a", Title: "RSS Item", PublishedAt: "2024-03-02T10:00:00Z", Source: news.SourceGuardian, URL: "https://example.com/a"},
	}}
	server := newTestServer(t, fetcher, &fakePreferenceRepo{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/news/rss", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Expected XML content type, got '%s'", w.Header().Get("Content-Type"))
	}
	if w.Header().Get("X-Article-Count") != "1" {
		t.Errorf("Expected X-Article-Count '1', got '%s'", w.Header().Get("X-Article-Count"))
	}
	if !strings.Contains(w.Body.String(), "<title>RSS Item</title>") {
		t.Error("Expected item title in RSS output")
	}
}

func TestGetNewsArchive(t *testing.T) {
	setupTestConfig()
	publishedAt := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	repo := &fakeArticleRepo{stored: []database.StoredArticle{
		{
			ExternalID:              "https://example.com/stored",
			Source:                  news.SourceGuardian,
			Title:                   "Stored headline",
			URL:                     "https://example.com/stored",
			PublishedAt:             &publishedAt,
			Content:                 "<p>Extracted body</p>",
			ContentExtractionStatus: "success",
		},
		{
			ExternalID:              "https://example.com/pending",
			Source:                  news.SourceGuardian,
			Title:                   "Pending headline",
			URL:                     "https://example.com/pending",
			Content:                 "",
			ContentExtractionStatus: "pending",
		},
	}}
	handler := NewHandler(&fakeFetcher{}, newTestConfigCache(t), repo, &fakePreferenceRepo{}, nil)
	server := NewServer(handler, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/news/archive?source=The+Guardian", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Articles []map[string]interface{} `json:"articles"`
		Count    int                      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("Expected 2 archived articles, got %d", resp.Count)
	}
	if resp.Articles[0]["content"] != "<p>Extracted body</p>" {
		t.Errorf("Expected extracted content on successful article, got %v", resp.Articles[0]["content"])
	}
	if _, ok := resp.Articles[1]["content"]; ok {
		t.Error("Expected no content field for pending extraction")
	}

	// Unknown source is rejected
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/news/archive?source=Some+Other+Wire", nil)
	server.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown source, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	server := newTestServer(t, &fakeFetcher{}, &fakePreferenceRepo{}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if health["articles"].(float64) != 7 {
		t.Errorf("Expected 7 articles, got %v", health["articles"])
	}
	if health["loaded_configurations"].(float64) != 2 {
		t.Errorf("Expected 2 loaded configurations, got %v", health["loaded_configurations"])
	}
}

func TestPreferencesRequireAPIKey(t *testing.T) {
	server := newTestServer(t, &fakeFetcher{}, &fakePreferenceRepo{}, "secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/preferences", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without API key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/preferences", nil)
	req.Header.Set("X-API-Key", "secret")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with API key, got %d", w.Code)
	}
}

func TestUpdatePreferences(t *testing.T) {
	prefRepo := &fakePreferenceRepo{}
	server := newTestServer(t, &fakeFetcher{}, prefRepo, "secret")

	body := `{"enabled_sources": ["The Guardian", "NewsAPI"], "categories": ["science"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/api/preferences", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	stored := prefRepo.prefs["default"]
	if stored == nil {
		t.Fatal("Expected preference to be stored")
	}
	if len(stored.EnabledSources) != 2 {
		t.Errorf("Expected 2 enabled sources stored, got %v", stored.EnabledSources)
	}
}

func TestUpdatePreferencesRejectsUnknownSource(t *testing.T) {
	server := newTestServer(t, &fakeFetcher{}, &fakePreferenceRepo{}, "secret")

	body := `{"enabled_sources": ["Some Other Wire"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/api/preferences", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	req.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown source, got %d", w.Code)
	}
}
