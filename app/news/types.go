package news

import (
	"context"
	"time"
)

// Source display names, fixed enumeration. Each name is backed by exactly
// one adapter.
const (
	SourceGuardian = "The Guardian"
	SourceNYTimes  = "New York Times"
	SourceNewsAPI  = "NewsAPI"
)

// IsKnownSource reports whether name matches one of the fixed source
// display names.
func IsKnownSource(name string) bool {
	switch name {
	case SourceGuardian, SourceNYTimes, SourceNewsAPI:
		return true
	}
	return false
}

// PlaceholderImageURL is returned whenever a provider supplies no usable
// image for an article.
const PlaceholderImageURL = "https://placehold.co/600x400?text=No+Image"

// Category vocabulary shared across adapters. Each adapter keeps its own
// mapping from these values into the provider's native taxonomy.
const (
	CategoryBusiness      = "business"
	CategoryEntertainment = "entertainment"
	CategoryGeneral       = "general"
	CategoryHealth        = "health"
	CategoryScience       = "science"
	CategorySports        = "sports"
	CategoryTechnology    = "technology"
)

var Categories = []string{
	CategoryBusiness,
	CategoryEntertainment,
	CategoryGeneral,
	CategoryHealth,
	CategoryScience,
	CategorySports,
	CategoryTechnology,
}

const defaultPageSize = 12

// Article is the unified article shape all adapters normalize into.
// PublishedAt carries the provider's ISO-8601 timestamp verbatim;
// Description may contain raw provider markup and is untrusted.
// Articles are constructed fresh on every fetch and never persisted by
// this package.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category,omitempty"`
}

// DateRange is a calendar-day precision range. From is required, To is
// optional.
type DateRange struct {
	From time.Time
	To   *time.Time
}

// SearchParams is the unified query input. Category and Categories are
// independent hints; each adapter decides which one governs per its own
// mode logic. Page is 0-based and source-local.
type SearchParams struct {
	Keyword    string
	Category   string
	Categories []string
	DateRange  *DateRange
	Source     string
	Page       int
}

// Source is the contract every provider adapter implements. FetchArticles
// never fails: adapters convert their own transport and parse errors into
// a logged diagnostic plus an empty result.
type Source interface {
	Name() string
	FetchArticles(ctx context.Context, params SearchParams) []Article
}

// ParsePublishedAt parses the provider timestamp formats seen across the
// three adapters. Unparsable values return the zero time, which makes
// them sort as the oldest possible articles.
func ParsePublishedAt(value string) time.Time {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
