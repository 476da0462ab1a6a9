package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background processing of source
// refresh and content extraction tasks.
// Example usage:
//
//	scheduler := NewScheduler(configCache, sources, articleRepo, httpClient, extractor)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
