package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/mkarpov/news-comb/app/news"
)

func TestGenerateNewsKeyConsistency(t *testing.T) {
	cache := &Cache{}

	params := news.SearchParams{
		Keyword:    "climate",
		Category:   news.CategoryScience,
		Categories: []string{news.CategoryScience, news.CategoryHealth},
	}
	sources := []string{news.SourceGuardian, news.SourceNYTimes}

	key1 := cache.GenerateNewsKey(params, sources, 0)
	key2 := cache.GenerateNewsKey(params, sources, 0)

	// Same query should generate the same key
	if key1 != key2 {
		t.Errorf("Expected same key for same query, got %s != %s", key1, key2)
	}

	// Keys should have correct prefix
	if !strings.HasPrefix(key1, "news:") {
		t.Errorf("Expected key to start with 'news:', got %s", key1)
	}
}

func TestGenerateNewsKeyDiscriminates(t *testing.T) {
	cache := &Cache{}

	base := news.SearchParams{Keyword: "climate"}
	sources := []string{news.SourceGuardian}
	baseKey := cache.GenerateNewsKey(base, sources, 0)

	to := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	variants := []struct {
		name    string
		params  news.SearchParams
		sources []string
		page    int
	}{
		{"different keyword", news.SearchParams{Keyword: "economy"}, sources, 0},
		{"added category", news.SearchParams{Keyword: "climate", Category: news.CategoryScience}, sources, 0},
		{"added date range", news.SearchParams{Keyword: "climate", DateRange: &news.DateRange{From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), To: &to}}, sources, 0},
		{"different sources", base, []string{news.SourceNYTimes}, 0},
		{"different page", base, sources, 1},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			key := cache.GenerateNewsKey(tt.params, tt.sources, tt.page)
			if key == baseKey {
				t.Errorf("Expected a distinct key, got duplicate %s", key)
			}
		})
	}
}
