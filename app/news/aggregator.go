package news

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Aggregator fans a query out to the enabled source adapters concurrently
// and merges their contributions into one recency-ordered list. The
// adapters own their failure handling, so a source that errors simply
// contributes nothing.
type Aggregator struct {
	sources map[string]Source
	timeout time.Duration
}

// NewAggregator builds the static source-name registry. timeout bounds
// each adapter call so one hung provider cannot block the aggregate
// result; zero disables the bound.
func NewAggregator(sources []Source, timeout time.Duration) *Aggregator {
	registry := make(map[string]Source, len(sources))
	for _, source := range sources {
		registry[source.Name()] = source
	}
	return &Aggregator{
		sources: registry,
		timeout: timeout,
	}
}

// FetchAll queries every enabled source with the given filters and page.
// Unknown source names are ignored. The page value is forwarded unchanged
// to each adapter: pagination is source-local, so page N of the aggregate
// is the union of page N of each enabled source, not a global offset.
func (a *Aggregator) FetchAll(ctx context.Context, filters SearchParams, enabledSources []string, page int) []Article {
	var active []Source
	for _, name := range enabledSources {
		if source, ok := a.sources[name]; ok {
			active = append(active, source)
		}
	}

	if len(active) == 0 {
		return []Article{}
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		all []Article
	)

	for _, source := range active {
		wg.Add(1)
		go func(source Source) {
			defer wg.Done()

			fetchCtx := ctx
			if a.timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, a.timeout)
				defer cancel()
			}

			params := filters
			params.Page = page

			started := time.Now()
			articles := source.FetchArticles(fetchCtx, params)
			slog.Debug("Source fetch completed",
				"source", source.Name(),
				"articles", len(articles),
				"duration", time.Since(started))

			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	// Most recent first. Unparsable timestamps resolve to the zero time
	// and therefore sort to the end.
	sort.SliceStable(all, func(i, j int) bool {
		return ParsePublishedAt(all[i].PublishedAt).After(ParsePublishedAt(all[j].PublishedAt))
	})

	return all
}
