package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel page requests.
	// Keep this modest; GitHub's secondary limits punish bursts.
	MaxConcurrency int

	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        30 * time.Second,
	}
}

// PageFetcher fetches one explicit page of a paginated endpoint and reports
// the total page count. *client.Client satisfies this.
type PageFetcher interface {
	FetchPage(ctx context.Context, path string, query url.Values, page int) ([]json.RawMessage, int, error)
}

// pageResult carries one fetched page back to the collector.
type pageResult struct {
	page  int
	items []json.RawMessage
	err   error
}

// BatchFetcher fetches all pages of an endpoint with a worker pool, then
// reassembles them in page order. Unlike sequential Link-following, pages
// 2..N are requested concurrently once page 1 has revealed the total.
type BatchFetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(fetcher PageFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every page of path and returns the items flattened in
// page order. Any page failure aborts the whole call; no partial result is
// returned.
func (bf *BatchFetcher) FetchAll(ctx context.Context, path string, query url.Values) ([]json.RawMessage, error) {
	start := time.Now()

	firstPage, totalPages, err := bf.fetcher.FetchPage(ctx, path, query, 1)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}

	if totalPages <= 1 {
		return firstPage, nil
	}

	log.Info().
		Str("path", path).
		Int("total_pages", totalPages).
		Msg("Starting parallel page fetch")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pageQueue := make(chan int, totalPages)
	results := make(chan pageResult, totalPages)

	for page := 2; page <= totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, path, query, pageQueue, results, &wg)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pages := make([][]json.RawMessage, totalPages+1)
	pages[1] = firstPage

	var firstErr error
	for result := range results {
		if result.err != nil {
			if firstErr == nil {
				firstErr = result.err
				cancel()
			}
			continue
		}
		pages[result.page] = result.items
	}

	if firstErr != nil {
		return nil, fmt.Errorf("fetch page: %w", firstErr)
	}

	var items []json.RawMessage
	for page := 1; page <= totalPages; page++ {
		items = append(items, pages[page]...)
	}

	log.Info().
		Str("path", path).
		Int("pages", totalPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// worker drains the page queue until it is empty or the context is cancelled.
func (bf *BatchFetcher) worker(ctx context.Context, path string, query url.Values, pageQueue <-chan int, results chan<- pageResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for page := range pageQueue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		items, _, err := bf.fetcher.FetchPage(pageCtx, path, query, page)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Int("page", page).
				Str("path", path).
				Msg("Page fetch failed")
			results <- pageResult{page: page, err: err}
			return
		}

		results <- pageResult{page: page, items: items}
	}
}
