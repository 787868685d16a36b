package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen based on MediaWiki API characteristics and the
// behavior of the original mirror script where applicable.
const (
	// DefaultWikiURL is the upstream wiki this project mirrors.
	// Any MediaWiki installation works; this is the ConTeXt Garden wiki.
	DefaultWikiURL = "https://wiki.contextgarden.net/"

	// DefaultEntryPage is the page index.html redirects to.
	// "Main Page" is the MediaWiki convention for the wiki front page.
	DefaultEntryPage = "Main Page"

	// DefaultBranch is the git branch that holds the generated mirror tree.
	// The tooling lives on master; generated content stays on its own branch
	// so regeneration never touches the tool history.
	DefaultBranch = "mirror"

	// DefaultRemote is the git remote the mirror branch is pushed to.
	DefaultRemote = "origin"

	// DefaultOutputDir is the working directory the static tree is written
	// into. It doubles as the git worktree for the mirror branch.
	DefaultOutputDir = "mirror"

	// DefaultTimeout is the per-request timeout. MediaWiki render requests
	// are usually fast, but large pages on a busy wiki can take a while.
	DefaultTimeout = 60 * time.Second

	// DefaultDelay is the politeness delay between upstream requests.
	// 500ms keeps a full mirror of a mid-sized wiki under an hour while
	// staying gentle on the upstream server.
	DefaultDelay = 500 * time.Millisecond

	// DefaultBatchSize is the number of concurrent page/resource fetches.
	// Public wikis are often small installations; four concurrent requests
	// combined with the politeness delay is a conservative load.
	DefaultBatchSize = 4

	// DefaultMaxPages caps the number of pages mirrored in one run.
	// This prevents runaway enumeration if the upstream API misbehaves.
	// The cap is generous: the ConTeXt Garden wiki has ~4000 pages.
	DefaultMaxPages = 20000

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 20MB accommodates large images while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 20 * 1024 * 1024 // 20MB

	// DefaultUserAgent identifies the mirror in HTTP requests, following
	// the MediaWiki etiquette of a contact URL in the User-Agent.
	DefaultUserAgent = "context-wiki-mirror/0.1.0 (+https://github.com/gucci-on-fleek/context-wiki-mirror)"

	// AppName is the application name used for XDG directory paths.
	AppName = "wikimirror"
)

// Config holds all configuration options for wikimirror.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, PublishConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// WikiURL is the base URL of the upstream MediaWiki installation,
	// e.g. "https://wiki.contextgarden.net/". api.php and index.php are
	// resolved relative to it.
	WikiURL string

	// EntryPage is the title of the page the generated index.html
	// redirects to.
	EntryPage string

	// OutputDir is the directory the static mirror tree is written into.
	// It is used as the git worktree when publishing.
	OutputDir string

	// Branch is the git branch that receives the generated tree.
	Branch string

	// Remote is the git remote the mirror branch is pushed to.
	Remote string

	// Push enables pushing the mirror branch after a successful commit.
	Push bool

	// NoPublish skips the git commit entirely; only the static tree is
	// written. Useful for inspecting the output before committing.
	NoPublish bool

	// CredentialsFile is the path to the TOML credentials file.
	// When empty, the mirror runs anonymously and skips the login step.
	CredentialsFile string

	// Credentials holds the loaded wiki credentials, if any.
	Credentials *Credentials

	// Timeout is the per-request timeout for upstream HTTP requests.
	Timeout time.Duration

	// Delay is the politeness delay between upstream requests.
	Delay time.Duration

	// BatchSize is the number of concurrent page/resource fetches.
	BatchSize int

	// MaxPages caps the number of pages mirrored in one run.
	MaxPages int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Full disables incremental mode: every page is rewritten and written
	// to disk even when its content hash is unchanged.
	Full bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .wikimirror in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-wiki configurations loaded from the config
	// file, keyed by wiki host.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the run report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for the SQLite state database.
	// Defaults to the XDG data directory. When empty, mirror state is not
	// persisted and incremental detection is disabled.
	DBDir string

	// SaveState indicates whether to record mirror state in the database.
	// This is automatically set to true when DBDir is configured.
	SaveState bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, branch
// name). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		WikiURL:     DefaultWikiURL,
		EntryPage:   DefaultEntryPage,
		OutputDir:   DefaultOutputDir,
		Branch:      DefaultBranch,
		Remote:      DefaultRemote,
		Timeout:     DefaultTimeout,
		Delay:       DefaultDelay,
		BatchSize:   DefaultBatchSize,
		MaxPages:    DefaultMaxPages,
		MaxBodySize: DefaultMaxBodySize,
		UserAgent:   DefaultUserAgent,
	}
}

// XDGDataDir returns the XDG data directory for wikimirror.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/wikimirror
// On macOS: ~/Library/Application Support/wikimirror
// On Windows: %LOCALAPPDATA%\wikimirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wikimirror.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for wikimirror.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// WikiHost returns the host portion of the configured wiki URL.
// Used to key per-wiki configuration and to restrict resource fetches.
// Returns an empty string if the URL does not parse.
func (c *Config) WikiHost() string {
	u, err := url.Parse(c.WikiURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.WikiURL == "" {
		return ErrNoWikiURL
	}

	// The wiki URL must parse and use an HTTP scheme; everything else
	// (api.php paths, resource URLs) is resolved against it
	u, err := url.Parse(c.WikiURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidWikiURL
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Branch == "" {
		return ErrNoBranch
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// BatchSize must be positive; zero would mean no fetching
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// Delay must be non-negative
	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
