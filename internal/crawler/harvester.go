package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// Harvester downloads the resources (images, stylesheets, media) that a
// set of rendered pages reference on the wiki host.
//
// Design decision: We call it "Harvester" rather than "Crawler" because
// it does not follow links: the page set comes from the API enumeration,
// and the harvester only gathers what those pages already reference.
type Harvester struct {
	// client is the HTTP client to fetch with. It is shared with the API
	// client so downloads ride on the login session.
	client *http.Client

	// delay is the minimum time between requests. This is a politeness
	// setting to avoid hammering the wiki.
	delay time.Duration

	// batchSize is the number of concurrent downloads.
	batchSize int

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// ignorePatterns are URL path patterns to skip.
	// Patterns use glob syntax (e.g., "/images/thumb/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to allow.
	// If set, only URLs matching these patterns are fetched.
	// Empty means all URLs are allowed (subject to ignorePatterns).
	followPatterns []string

	// visited tracks URLs already fetched to avoid duplicates.
	visited map[string]bool

	// mutex protects concurrent access to visited.
	mutex sync.Mutex

	// logger for structured logging.
	logger *slog.Logger
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*Harvester)

// WithDelay sets the minimum time between requests.
func WithDelay(d time.Duration) HarvesterOption {
	return func(h *Harvester) {
		h.delay = d
	}
}

// WithBatchSize sets the number of concurrent downloads.
func WithBatchSize(n int) HarvesterOption {
	return func(h *Harvester) {
		if n > 0 {
			h.batchSize = n
		}
	}
}

// WithHarvesterUserAgent sets a custom User-Agent header.
func WithHarvesterUserAgent(ua string) HarvesterOption {
	return func(h *Harvester) {
		h.userAgent = ua
	}
}

// WithHarvesterMaxBodySize sets the maximum response body size.
func WithHarvesterMaxBodySize(size int64) HarvesterOption {
	return func(h *Harvester) {
		h.maxBodySize = size
	}
}

// WithIgnorePatterns sets URL path patterns to skip.
// Patterns use glob syntax (e.g., "/images/thumb/*", "*.pdf").
// URLs matching any of these patterns will not be fetched.
func WithIgnorePatterns(patterns []string) HarvesterOption {
	return func(h *Harvester) {
		h.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to allow.
// If set, only URLs matching at least one pattern are fetched.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) HarvesterOption {
	return func(h *Harvester) {
		h.followPatterns = patterns
	}
}

// WithHarvesterLogger sets a custom logger.
func WithHarvesterLogger(logger *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// NewHarvester creates a Harvester using the given HTTP client.
//
// Design decision: We require an external client because:
//  1. The session cookie jar lives in the API client's HTTP client
//  2. Consistent connection pooling across the whole run
//  3. Allows for different configurations in tests
func NewHarvester(client *http.Client, opts ...HarvesterOption) *Harvester {
	h := &Harvester{
		client:      client,
		delay:       500 * time.Millisecond,
		batchSize:   4,
		userAgent:   "context-wiki-mirror/0.1.0",
		maxBodySize: 20 * 1024 * 1024, // 20MB
		visited:     make(map[string]bool),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// FetchError records a single failed download.
type FetchError struct {
	// URL is the resource URL that failed.
	URL string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e FetchError) Unwrap() error {
	return e.Err
}

// CollectURLs parses every page's rendered HTML and returns the unique
// resource URLs they reference, in first-seen order, filtered by the
// harvester's ignore/follow patterns.
func (h *Harvester) CollectURLs(pages []*model.WikiPage) []string {
	urls := make([]string, 0)
	seen := make(map[string]bool)

	for _, page := range pages {
		if len(page.Rendered) == 0 {
			continue
		}

		parser, err := NewParser(page.URL)
		if err != nil {
			continue
		}
		result, err := parser.Parse(strings.NewReader(string(page.Rendered)))
		if err != nil {
			h.logger.Warn("failed to parse page for resources", "title", page.Title, "error", err)
			continue
		}

		for _, resource := range result.Resources {
			key := normalizeURL(resource)
			if seen[key] || !h.shouldFetch(resource) {
				continue
			}
			seen[key] = true
			urls = append(urls, resource)
		}
	}

	return urls
}

// Harvest downloads the resources referenced by the given pages.
// Downloads run concurrently up to the configured batch size, with the
// politeness delay enforced globally across workers. Individual failures
// are collected rather than aborting the run: a missing image must not
// cost the whole mirror.
func (h *Harvester) Harvest(ctx context.Context, pages []*model.WikiPage) ([]*model.Resource, []FetchError) {
	urls := h.CollectURLs(pages)

	resources := make([]*model.Resource, 0, len(urls))
	failures := make([]FetchError, 0)
	var resultMutex sync.Mutex

	// One ticker gates all workers so concurrency never multiplies the
	// request rate.
	var tick <-chan time.Time
	if h.delay > 0 {
		ticker := time.NewTicker(h.delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.batchSize)

	for _, resourceURL := range urls {
		if h.isVisited(resourceURL) {
			continue
		}
		h.markVisited(resourceURL)

		g.Go(func() error {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			}

			resource, err := h.fetchResource(ctx, resourceURL)

			resultMutex.Lock()
			defer resultMutex.Unlock()
			if err != nil {
				failures = append(failures, FetchError{URL: resourceURL, Err: err})
				return nil
			}
			resources = append(resources, resource)
			return nil
		})
	}

	// The only error propagated through the group is context cancellation.
	if err := g.Wait(); err != nil {
		resultMutex.Lock()
		defer resultMutex.Unlock()
		return resources, failures
	}

	return resources, failures
}

// fetchResource downloads a single resource.
func (h *Harvester) fetchResource(ctx context.Context, resourceURL string) (*model.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBodySize))
	if err != nil {
		return nil, err
	}

	resource := &model.Resource{
		URL:         resourceURL,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		Size:        int64(len(data)),
	}
	resource.ComputeHash()

	h.logger.Debug("fetched resource",
		"url", resourceURL,
		"size", resource.Size,
		"content_type", resource.ContentType,
	)

	return resource, nil
}

// isVisited checks if a URL has been fetched.
func (h *Harvester) isVisited(resourceURL string) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.visited[normalizeURL(resourceURL)]
}

// markVisited marks a URL as fetched.
func (h *Harvester) markVisited(resourceURL string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.visited[normalizeURL(resourceURL)] = true
}

// Reset clears the harvester's state, allowing it to be reused.
func (h *Harvester) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.visited = make(map[string]bool)
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same resource can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. The root path and the empty path are the same location
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// shouldFetch checks if a URL should be fetched based on ignore/follow
// patterns.
//
// Logic:
//  1. If URL matches any ignorePattern, skip it (return false)
//  2. If followPatterns is set and URL matches none, skip it (return false)
//  3. Otherwise, fetch it (return true)
func (h *Harvester) shouldFetch(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range h.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(h.followPatterns) > 0 {
		for _, pattern := range h.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/images/thumb/*" matches "/images/thumb/a/ab/logo.png"
//   - "*.pdf" matches "/images/manual.pdf"
func matchPattern(pattern, path string) bool {
	// Prefix patterns like "/images/thumb/*" should match arbitrarily
	// deep paths, which filepath.Match alone does not do.
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	// Extension patterns like "*.pdf"
	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Match just the filename for patterns like "*.png"
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
