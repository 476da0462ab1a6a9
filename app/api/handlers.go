package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
)

const defaultPreferenceProfile = "default"

func NewHandler(fetcher NewsFetcherInterface, configCache *news.ConfigCache,
	articleRepo database.ArticleRepository, preferenceRepo database.PreferenceRepository,
	articleCache ArticleCache) *Handler {
	return &Handler{
		fetcher:        fetcher,
		generator:      NewGenerator(),
		configCache:    configCache,
		articleRepo:    articleRepo,
		preferenceRepo: preferenceRepo,
		articleCache:   articleCache,
	}
}

func (h *Handler) GetNews(c *gin.Context) {
	params, page, ok := h.parseSearchParams(c)
	if !ok {
		return
	}

	enabledSources := h.resolveSources(c)

	var cacheKey string
	if h.articleCache != nil {
		cacheKey = h.articleCache.GenerateNewsKey(params, enabledSources, page)
		if articles, found, err := h.articleCache.GetArticles(c.Request.Context(), cacheKey); err != nil {
			slog.Warn("Cache lookup failed", "key", cacheKey, "error", err)
		} else if found {
			c.JSON(http.StatusOK, NewsResponse{
				Articles: articles,
				Count:    len(articles),
				Page:     page,
				Sources:  enabledSources,
			})
			return
		}
	}

	articles := h.fetcher.FetchAll(c.Request.Context(), params, enabledSources, page)

	if h.articleCache != nil {
		if err := h.articleCache.SetArticles(c.Request.Context(), cacheKey, articles); err != nil {
			slog.Warn("Cache store failed", "key", cacheKey, "error", err)
		}
	}

	c.JSON(http.StatusOK, NewsResponse{
		Articles: articles,
		Count:    len(articles),
		Page:     page,
		Sources:  enabledSources,
	})
}

// GetNewsArchive serves locally stored articles for one source, including
// any extracted full-text content. This reads what the background refresh
// tasks have accumulated rather than querying the providers.
func (h *Handler) GetNewsArchive(c *gin.Context) {
	source := strings.TrimSpace(c.Query("source"))
	if !news.IsKnownSource(source) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or missing 'source' parameter"})
		return
	}

	limit := 50
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit', expected 1-500"})
			return
		}
		limit = parsed
	}

	articles, err := h.articleRepo.GetRecentArticles(source, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_articles", "source", source, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(articles))
	for _, article := range articles {
		item := gin.H{
			"id":          article.ExternalID,
			"title":       article.Title,
			"description": article.Description,
			"author":      article.Author,
			"source":      article.Source,
			"url":         article.URL,
			"image_url":   article.ImageURL,
			"category":    article.Category,
			"fetched_at":  article.FetchedAt,
		}
		if article.PublishedAt != nil {
			item["published_at"] = article.PublishedAt
		}
		if article.ContentExtractionStatus == "success" {
			item["content"] = article.Content
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": items,
		"count":    len(items),
		"source":   source,
	})
}

func (h *Handler) GetNewsRSS(c *gin.Context) {
	params, page, ok := h.parseSearchParams(c)
	if !ok {
		return
	}

	enabledSources := h.resolveSources(c)
	articles := h.fetcher.FetchAll(c.Request.Context(), params, enabledSources, page)

	rss, err := h.generator.Run(articles, "News Comb")
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Article-Count", strconv.Itoa(len(articles)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if articleCount, err := h.articleRepo.GetArticleCount(); err == nil {
		health["articles"] = articleCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if total, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["total_articles"] = total
	}

	if bySource, err := h.articleRepo.GetArticleCountBySource(); err == nil {
		stats["articles_by_source"] = bySource
	}

	configs := h.configCache.GetConfigs()
	sources := make([]map[string]interface{}, 0, len(configs))
	for _, sourceConfig := range configs {
		sources = append(sources, map[string]interface{}{
			"name":             sourceConfig.Name,
			"source":           sourceConfig.Source,
			"enabled":          sourceConfig.Settings.Enabled,
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
			"extract_content":  sourceConfig.Settings.ExtractContent,
		})
	}
	stats["sources"] = sources

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIGetPreferences(c *gin.Context) {
	profile := c.DefaultQuery("profile", defaultPreferenceProfile)

	pref, err := h.preferenceRepo.GetPreference(profile)
	if err != nil {
		slog.Error("Database error", "operation", "get_preference", "profile", profile, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if pref == nil {
		c.JSON(http.StatusOK, gin.H{
			"profile":         profile,
			"enabled_sources": h.configCache.EnabledSourceNames(),
			"categories":      []string{},
			"persisted":       false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":         pref.Profile,
		"enabled_sources": pref.EnabledSources,
		"categories":      pref.Categories,
		"updated_at":      pref.UpdatedAt,
		"persisted":       true,
	})
}

type updatePreferencesRequest struct {
	EnabledSources []string `json:"enabled_sources"`
	Categories     []string `json:"categories"`
}

func (h *Handler) APIUpdatePreferences(c *gin.Context) {
	profile := c.DefaultQuery("profile", defaultPreferenceProfile)

	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	for _, source := range req.EnabledSources {
		if !news.IsKnownSource(source) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source", "source": source})
			return
		}
	}

	pref := database.Preference{
		Profile:        profile,
		EnabledSources: req.EnabledSources,
		Categories:     req.Categories,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := h.preferenceRepo.UpsertPreference(pref); err != nil {
		slog.Error("Database error", "operation", "upsert_preference", "profile", profile, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"profile":         profile,
		"enabled_sources": pref.EnabledSources,
		"categories":      pref.Categories,
	})
}

// parseSearchParams reads the shared query parameters for the news endpoints.
// It writes a 400 response and returns ok=false on invalid input.
func (h *Handler) parseSearchParams(c *gin.Context) (news.SearchParams, int, bool) {
	params := news.SearchParams{
		Keyword:  strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
	}

	if categories := strings.TrimSpace(c.Query("categories")); categories != "" {
		for _, category := range strings.Split(categories, ",") {
			if category = strings.TrimSpace(category); category != "" {
				params.Categories = append(params.Categories, category)
			}
		}
	}

	from := strings.TrimSpace(c.Query("from"))
	to := strings.TrimSpace(c.Query("to"))
	if from != "" || to != "" {
		if from == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter 'to' requires 'from'"})
			return params, 0, false
		}

		fromDate, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
			return params, 0, false
		}

		dateRange := news.DateRange{From: fromDate}
		if to != "" {
			toDate, err := time.Parse("2006-01-02", to)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
				return params, 0, false
			}
			dateRange.To = &toDate
		}
		params.DateRange = &dateRange
	}

	page := 0
	if pageParam := c.Query("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'page', expected a non-negative integer"})
			return params, 0, false
		}
		page = parsed
	}

	return params, page, true
}

// resolveSources picks the active sources: an explicit override on the
// request, then the stored default preference profile, then whatever
// configurations are enabled on disk.
func (h *Handler) resolveSources(c *gin.Context) []string {
	if override := strings.TrimSpace(c.Query("sources")); override != "" {
		var sources []string
		for _, source := range strings.Split(override, ",") {
			if source = strings.TrimSpace(source); source != "" {
				sources = append(sources, source)
			}
		}
		return sources
	}

	if h.preferenceRepo != nil {
		if pref, err := h.preferenceRepo.GetPreference(defaultPreferenceProfile); err != nil {
			slog.Warn("Failed to load default preference profile", "error", err)
		} else if pref != nil && len(pref.EnabledSources) > 0 {
			return pref.EnabledSources
		}
	}

	return h.configCache.EnabledSourceNames()
}
