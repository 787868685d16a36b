package model

import "time"

// Summary is a condensed view of a MirrorReport intended for human-readable
// output. It strips page contents and keeps only the numbers an operator
// wants after a run.
//
// Design decision: We derive the summary from the full report rather than
// maintaining it incrementally because the derivation is cheap and keeps
// counter bookkeeping in one place.
type Summary struct {
	// WikiURL is the base URL of the upstream wiki.
	WikiURL string `json:"wiki_url"`

	// Branch is the git branch the mirror tree is published on.
	Branch string `json:"branch,omitempty"`

	// DateStarted is when the mirror run began.
	DateStarted time.Time `json:"date_started"`

	// Duration is the total wall-clock time of the run.
	Duration time.Duration `json:"duration"`

	// PagesListed is the number of pages enumerated from the wiki.
	PagesListed int `json:"pages_listed"`

	// PagesFetched counts pages whose rendered HTML was retrieved.
	PagesFetched int `json:"pages_fetched"`

	// PagesChanged counts fetched pages with new content since last run.
	PagesChanged int `json:"pages_changed"`

	// PagesUnchanged counts fetched pages identical to the previous run.
	PagesUnchanged int `json:"pages_unchanged"`

	// PagesFailed counts pages that could not be fetched.
	PagesFailed int `json:"pages_failed"`

	// ResourcesFetched counts resources downloaded successfully.
	ResourcesFetched int `json:"resources_fetched"`

	// ResourcesFailed counts resources that could not be downloaded.
	ResourcesFailed int `json:"resources_failed"`

	// FilesWritten is the number of files written to the mirror tree.
	FilesWritten int `json:"files_written"`

	// BytesWritten is the total size of files written.
	BytesWritten int64 `json:"bytes_written"`

	// Published reports whether a commit was created on the mirror branch.
	Published bool `json:"published"`

	// CommitHash is the publish commit hash, if any.
	CommitHash string `json:"commit_hash,omitempty"`

	// Pushed reports whether the mirror branch was pushed.
	Pushed bool `json:"pushed"`

	// TimedOut reports whether the run was cancelled before completion.
	TimedOut bool `json:"timed_out"`

	// Error is the fatal error message, if any.
	Error string `json:"error,omitempty"`

	// Failures carries the individual failure records for display.
	Failures []Failure `json:"failures,omitempty"`
}

// NewSummary derives a Summary from a full mirror report.
func NewSummary(report *MirrorReport) *Summary {
	return &Summary{
		WikiURL:          report.WikiURL,
		Branch:           report.Branch,
		DateStarted:      report.DateStarted,
		Duration:         report.Duration,
		PagesListed:      report.PagesListed(),
		PagesFetched:     report.PagesFetched,
		PagesChanged:     report.PagesFetched - report.PagesUnchanged,
		PagesUnchanged:   report.PagesUnchanged,
		PagesFailed:      report.PagesFailed,
		ResourcesFetched: report.ResourcesFetched,
		ResourcesFailed:  report.ResourcesFailed,
		FilesWritten:     report.FilesWritten,
		BytesWritten:     report.BytesWritten,
		Published:        report.Published,
		CommitHash:       report.CommitHash,
		Pushed:           report.Pushed,
		TimedOut:         report.TimedOut,
		Error:            report.ErrorMessage,
		Failures:         report.Failures,
	}
}

// HasFailures reports whether any page or resource failed during the run.
func (s *Summary) HasFailures() bool {
	return s.PagesFailed > 0 || s.ResourcesFailed > 0
}

// Complete reports whether the run finished without fatal error or timeout.
func (s *Summary) Complete() bool {
	return !s.TimedOut && s.Error == ""
}
