package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkarpov/news-comb/app/api"
	"github.com/mkarpov/news-comb/app/cache"
	"github.com/mkarpov/news-comb/app/cfg"
	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
	"github.com/mkarpov/news-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting News Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	articleRepo := database.NewArticleRepository(db)
	preferenceRepo := database.NewPreferenceRepository(db)

	configCache := news.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "count", configCache.GetConfigCount())

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.RequestTimeout) * time.Second,
	}

	guardian := news.NewGuardianClient(appCfg.GuardianAPIKey, appCfg.UserAgent, httpClient)
	newsAPI := news.NewNewsAPIClient(appCfg.NewsAPIKey, appCfg.UserAgent, httpClient)
	nytimes := news.NewNYTimesClient(appCfg.NYTimesAPIKey, appCfg.UserAgent, httpClient)

	sources := []news.Source{guardian, newsAPI, nytimes}
	sourcesByName := make(map[string]news.Source, len(sources))
	for _, source := range sources {
		sourcesByName[source.Name()] = source
	}

	aggregator := news.NewAggregator(sources, time.Duration(appCfg.RequestTimeout)*time.Second)

	var articleCache api.ArticleCache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewCache(appCfg.RedisAddr, time.Duration(appCfg.CacheTTL)*time.Second)
		if err != nil {
			slog.Warn("Redis unavailable, continuing without response cache", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			articleCache = redisCache
			slog.Info("Response cache enabled", "addr", appCfg.RedisAddr, "ttl_seconds", appCfg.CacheTTL)
		}
	}

	contentExtractor := news.NewContentExtractor()

	scheduler := tasks.NewScheduler(configCache, sourcesByName, articleRepo, httpClient, contentExtractor)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval_seconds", appCfg.SchedulerInterval)

	apiHandler := api.NewHandler(aggregator, configCache, articleRepo, preferenceRepo, articleCache)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
