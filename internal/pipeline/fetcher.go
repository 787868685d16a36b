package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/database"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/mediawiki"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// PageFetcher downloads rendered HTML for an enumerated page set with
// bounded concurrency.
//
// Design decision: We use a separate PageFetcher rather than putting the
// concurrency in the fetch step because:
// 1. It keeps steps thin and declarative
// 2. It allows different fetch strategies (e.g., retries) without
//    touching the pipeline
// 3. It provides cleaner separation of concerns
type PageFetcher struct {
	// client fetches rendered page HTML.
	client *mediawiki.Client

	// db is the optional state database for incremental change detection.
	// Without it every page counts as changed.
	db *database.StateDB

	// concurrency is the maximum number of concurrent fetches.
	concurrency int

	// delay is the minimum time between requests, enforced globally
	// across workers.
	delay time.Duration

	// logger is used for fetch-level logging.
	logger *slog.Logger
}

// FetcherOption configures a PageFetcher.
type FetcherOption func(*PageFetcher)

// WithFetchConcurrency sets the maximum number of concurrent fetches.
// Default is 4 if not specified.
func WithFetchConcurrency(n int) FetcherOption {
	return func(f *PageFetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithFetchDelay sets the minimum time between requests.
func WithFetchDelay(d time.Duration) FetcherOption {
	return func(f *PageFetcher) {
		f.delay = d
	}
}

// WithStateDB attaches a state database for incremental change detection.
func WithStateDB(db *database.StateDB) FetcherOption {
	return func(f *PageFetcher) {
		f.db = db
	}
}

// WithFetcherLogger sets a custom logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *PageFetcher) {
		f.logger = logger
	}
}

// NewPageFetcher creates a PageFetcher using the given API client.
func NewPageFetcher(client *mediawiki.Client, opts ...FetcherOption) *PageFetcher {
	f := &PageFetcher{
		client:      client,
		concurrency: 4,
		delay:       500 * time.Millisecond,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FetchAll downloads the rendered HTML of every page in the report.
// Individual failures are recorded on the report and do not abort the
// run; the error return indicates cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each page gets its own goroutine, but only 'concurrency' goroutines
// run simultaneously, and a shared ticker keeps the aggregate request
// rate at one per delay interval.
func (f *PageFetcher) FetchAll(ctx context.Context, report *model.MirrorReport) error {
	startTime := time.Now()
	f.logger.Info("fetching pages",
		"total_pages", len(report.Pages),
		"concurrency", f.concurrency,
	)

	var tick <-chan time.Time
	if f.delay > 0 {
		ticker := time.NewTicker(f.delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, page := range report.Pages {
		g.Go(func() error {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			}

			if err := f.fetchPage(ctx, page); err != nil {
				// Record and continue - one broken page must not cost
				// the whole mirror
				report.AddFailure("fetch_pages", page.URL, err)
				f.logger.Warn("failed to fetch page",
					"title", page.Title,
					"error", err,
				)
				return nil
			}

			report.RecordPageFetched(!page.Changed)
			return nil
		})
	}

	err := g.Wait()

	f.logger.Info("page fetch complete",
		"fetched", report.PagesFetched,
		"unchanged", report.PagesUnchanged,
		"failed", report.PagesFailed,
		"elapsed", time.Since(startTime),
	)

	return err
}

// fetchPage downloads one page and computes its change status.
func (f *PageFetcher) fetchPage(ctx context.Context, page *model.WikiPage) error {
	body, err := f.client.RenderPage(ctx, page.PageID)
	if err != nil {
		return err
	}

	page.Rendered = body
	page.TruncateRendered()
	page.ComputeHash()
	page.FetchedAt = time.Now()

	page.Changed = true
	if f.db != nil {
		stored, err := f.db.GetPageHash(ctx, page.PageID)
		if err != nil {
			return err
		}
		page.Changed = stored != page.Hash

		if err := f.db.UpsertPage(ctx, page); err != nil {
			return err
		}
	}

	return nil
}
