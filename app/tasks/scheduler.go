package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mkarpov/news-comb/app/cfg"
	"github.com/mkarpov/news-comb/app/database"
	"github.com/mkarpov/news-comb/app/news"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	articleRepo      database.ArticleRepository
	configCache      *news.ConfigCache
	sources          map[string]news.Source
	httpClient       *http.Client
	contentExtractor *news.ContentExtractor
	userAgent        string
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
	lastRefresh      map[string]time.Time
}

func NewScheduler(configCache *news.ConfigCache, sources map[string]news.Source,
	articleRepo database.ArticleRepository, httpClient *http.Client,
	contentExtractor *news.ContentExtractor) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		articleRepo:      articleRepo,
		configCache:      configCache,
		sources:          sources,
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		userAgent:        cfg.UserAgent,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
		lastRefresh:      make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueTasks runs on the ticker goroutine only, so lastRefresh needs no locking.
func (s *Scheduler) enqueueTasks() {
	sourceConfigs := s.configCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	slog.Debug("Processing enabled source configurations for task scheduling", "count", len(sourceConfigs))

	now := time.Now().UTC()

	for _, sourceConfig := range sourceConfigs {
		source, ok := s.sources[sourceConfig.Source]
		if !ok {
			slog.Warn("No adapter registered for source, skipping", "source", sourceConfig.Source)
			continue
		}

		refreshInterval := time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second
		lastRefreshedAt, refreshed := s.lastRefresh[sourceConfig.Source]

		if refreshed && now.Sub(lastRefreshedAt) < refreshInterval {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Source, "last_refreshed_at", lastRefreshedAt)
		} else {
			refreshTask := NewRefreshHeadlinesTask(sourceConfig, source, s.articleRepo)
			if err := s.EnqueueTask(refreshTask); err != nil {
				slog.Warn("Failed to enqueue RefreshHeadlinesTask", "source", sourceConfig.Source, "error", err)
			} else {
				s.lastRefresh[sourceConfig.Source] = now
			}
		}

		if sourceConfig.Settings.ExtractContent {
			extractTask := NewExtractContentTask(sourceConfig, s.httpClient, s.contentExtractor, s.articleRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "source", sourceConfig.Source, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
