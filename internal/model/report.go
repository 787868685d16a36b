package model

import (
	"sync"
	"time"
)

// MirrorReport is the primary result structure for a mirror run.
// It accumulates state as pipeline steps execute: the page list, fetched
// pages and resources, counters, and the final publish result.
//
// Design decision: Steps share a single report rather than passing values
// between them because:
// 1. It mirrors how the pipeline executes (each step enriches the run)
// 2. A partially filled report is still useful after cancellation
// 3. The report doubles as the JSON output format
//
// Mutating methods are safe for concurrent use; the fetch steps run with
// bounded concurrency and record results from multiple goroutines.
type MirrorReport struct {
	// WikiURL is the base URL of the upstream wiki.
	WikiURL string `json:"wiki_url"`

	// EntryPage is the title of the page index.html redirects to.
	EntryPage string `json:"entry_page"`

	// Branch is the git branch the mirror tree is published on.
	Branch string `json:"branch,omitempty"`

	// DateStarted is when the mirror run began.
	DateStarted time.Time `json:"date_started"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// Pages contains every page enumerated from the wiki, in API order.
	Pages []*WikiPage `json:"pages,omitempty"`

	// Resources contains every resource discovered in rendered pages.
	Resources []*Resource `json:"resources,omitempty"`

	// PagesFetched counts pages whose rendered HTML was retrieved.
	PagesFetched int `json:"pages_fetched"`

	// PagesUnchanged counts fetched pages whose content hash matched the
	// previous run.
	PagesUnchanged int `json:"pages_unchanged"`

	// PagesFailed counts pages that could not be fetched.
	PagesFailed int `json:"pages_failed"`

	// ResourcesFetched counts resources downloaded successfully.
	ResourcesFetched int `json:"resources_fetched"`

	// ResourcesFailed counts resources that could not be downloaded.
	ResourcesFailed int `json:"resources_failed"`

	// BytesWritten is the total size of files written to the mirror tree.
	BytesWritten int64 `json:"bytes_written"`

	// FilesWritten is the number of files written to the mirror tree.
	FilesWritten int `json:"files_written"`

	// Published reports whether a commit was created on the mirror branch.
	// False when the tree was unchanged or publishing was disabled.
	Published bool `json:"published"`

	// CommitHash is the hash of the publish commit, if one was created.
	CommitHash string `json:"commit_hash,omitempty"`

	// Pushed reports whether the mirror branch was pushed to the remote.
	Pushed bool `json:"pushed"`

	// Failures records individual page/resource failures with context.
	Failures []Failure `json:"failures,omitempty"`

	// PerformedSteps lists the names of pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut reports whether the run was cancelled before completion.
	TimedOut bool `json:"timed_out"`

	// Error holds the first fatal error, if any. Excluded from JSON;
	// ErrorMessage carries the string form.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// mu guards concurrent mutation from fetch goroutines.
	mu sync.Mutex
}

// Failure describes a single non-fatal failure during a mirror run.
type Failure struct {
	// Stage names the pipeline step the failure occurred in.
	Stage string `json:"stage"`

	// URL is the upstream URL that failed, if applicable.
	URL string `json:"url,omitempty"`

	// Message is the error message.
	Message string `json:"message"`
}

// NewMirrorReport creates a report for a run against the given wiki.
func NewMirrorReport(wikiURL, entryPage string) *MirrorReport {
	return &MirrorReport{
		WikiURL:     wikiURL,
		EntryPage:   entryPage,
		DateStarted: time.Now(),
		Pages:       make([]*WikiPage, 0),
		Resources:   make([]*Resource, 0),
		Failures:    make([]Failure, 0),
	}
}

// AddResource appends a downloaded resource and bumps the fetched counter.
func (r *MirrorReport) AddResource(res *Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resources = append(r.Resources, res)
	r.ResourcesFetched++
}

// RecordPageFetched bumps the fetched counter and, when the content hash
// matched the previous run, the unchanged counter.
func (r *MirrorReport) RecordPageFetched(unchanged bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PagesFetched++
	if unchanged {
		r.PagesUnchanged++
	}
}

// AddFailure records a non-fatal failure for the given stage.
func (r *MirrorReport) AddFailure(stage, url string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, Failure{
		Stage:   stage,
		URL:     url,
		Message: err.Error(),
	})
	switch stage {
	case "fetch_pages":
		r.PagesFailed++
	case "harvest_resources":
		r.ResourcesFailed++
	}
}

// PagesListed returns the number of pages enumerated from the wiki.
func (r *MirrorReport) PagesListed() int {
	return len(r.Pages)
}

// SetError records a fatal error on the report.
func (r *MirrorReport) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}
