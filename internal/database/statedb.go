package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// StateDB provides SQLite-based storage for mirror state between runs.
// It records the content hash of every page and resource, which powers
// incremental mirroring, and a history of runs for the status command.
//
// Design decision: We use a single database file for the whole mirror
// rather than per-run files. Incremental detection needs the previous
// run's hashes in the same place the current run writes to.
type StateDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures StateDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a StateDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*StateDB, error) {
	dbPath := filepath.Join(dbDir, "wikimirror.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("state database not found at %s (run a mirror first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &StateDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *StateDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *StateDB) createTables() error {
	schema := `
	-- Pages store the latest known state of every mirrored page
	CREATE TABLE IF NOT EXISTS pages (
		page_id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_title ON pages(title);

	-- Resources store the latest known state of every mirrored resource
	CREATE TABLE IF NOT EXISTS resources (
		url TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		hash TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Runs record one row per mirror run for the status command
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages_fetched INTEGER NOT NULL,
		pages_unchanged INTEGER NOT NULL,
		pages_failed INTEGER NOT NULL,
		resources_fetched INTEGER NOT NULL,
		resources_failed INTEGER NOT NULL,
		files_written INTEGER NOT NULL,
		bytes_written INTEGER NOT NULL,
		published INTEGER NOT NULL DEFAULT 0,
		commit_hash TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertPage inserts or updates the stored state of a page.
func (sdb *StateDB) UpsertPage(ctx context.Context, page *model.WikiPage) error {
	query := `
	INSERT INTO pages (page_id, title, path, hash, fetched_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(page_id) DO UPDATE SET
		title = excluded.title,
		path = excluded.path,
		hash = excluded.hash,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := sdb.db.ExecContext(ctx, query, page.PageID, page.Title, page.Path, page.Hash)
	if err != nil {
		return fmt.Errorf("failed to upsert page %q: %w", page.Title, err)
	}

	return nil
}

// GetPageHash returns the stored content hash of a page, or "" when the
// page has never been mirrored.
func (sdb *StateDB) GetPageHash(ctx context.Context, pageID int64) (string, error) {
	var hash string
	err := sdb.db.QueryRowContext(ctx,
		`SELECT hash FROM pages WHERE page_id = ?`, pageID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get page hash: %w", err)
	}

	return hash, nil
}

// PageRecord is the stored state of a single page.
type PageRecord struct {
	PageID    int64
	Title     string
	Path      string
	Hash      string
	FetchedAt time.Time
}

// ListPages returns every stored page ordered by title.
func (sdb *StateDB) ListPages(ctx context.Context) ([]PageRecord, error) {
	rows, err := sdb.db.QueryContext(ctx,
		`SELECT page_id, title, path, hash, fetched_at FROM pages ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var records []PageRecord
	for rows.Next() {
		var record PageRecord
		var fetchedAt string
		if err := rows.Scan(&record.PageID, &record.Title, &record.Path, &record.Hash, &fetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		record.FetchedAt = parseTimestamp(fetchedAt)
		records = append(records, record)
	}

	return records, rows.Err()
}

// DeletePage removes a page that no longer exists upstream.
func (sdb *StateDB) DeletePage(ctx context.Context, pageID int64) error {
	if _, err := sdb.db.ExecContext(ctx, `DELETE FROM pages WHERE page_id = ?`, pageID); err != nil {
		return fmt.Errorf("failed to delete page %d: %w", pageID, err)
	}
	return nil
}

// UpsertResource inserts or updates the stored state of a resource.
func (sdb *StateDB) UpsertResource(ctx context.Context, resource *model.Resource) error {
	query := `
	INSERT INTO resources (url, path, hash, size, fetched_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(url) DO UPDATE SET
		path = excluded.path,
		hash = excluded.hash,
		size = excluded.size,
		fetched_at = CURRENT_TIMESTAMP
	`

	_, err := sdb.db.ExecContext(ctx, query, resource.URL, resource.Path, resource.Hash, resource.Size)
	if err != nil {
		return fmt.Errorf("failed to upsert resource %q: %w", resource.URL, err)
	}

	return nil
}

// GetResourceHash returns the stored content hash of a resource, or ""
// when the resource has never been mirrored.
func (sdb *StateDB) GetResourceHash(ctx context.Context, url string) (string, error) {
	var hash string
	err := sdb.db.QueryRowContext(ctx,
		`SELECT hash FROM resources WHERE url = ?`, url).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get resource hash: %w", err)
	}

	return hash, nil
}

// CountPages returns the number of stored pages.
func (sdb *StateDB) CountPages(ctx context.Context) (int, error) {
	var count int
	if err := sdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// CountResources returns the number of stored resources.
func (sdb *StateDB) CountResources(ctx context.Context) (int, error) {
	var count int
	if err := sdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return count, nil
}

// RecordRun stores one row summarizing a completed mirror run.
func (sdb *StateDB) RecordRun(ctx context.Context, report *model.MirrorReport) error {
	query := `
	INSERT INTO runs (
		started_at, duration_ms,
		pages_fetched, pages_unchanged, pages_failed,
		resources_fetched, resources_failed,
		files_written, bytes_written,
		published, commit_hash, error
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	published := 0
	if report.Published {
		published = 1
	}

	_, err := sdb.db.ExecContext(ctx, query,
		report.DateStarted.UTC().Format("2006-01-02 15:04:05"),
		report.Duration.Milliseconds(),
		report.PagesFetched,
		report.PagesUnchanged,
		report.PagesFailed,
		report.ResourcesFetched,
		report.ResourcesFailed,
		report.FilesWritten,
		report.BytesWritten,
		published,
		report.CommitHash,
		report.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// RunRecord is one stored mirror run.
type RunRecord struct {
	ID               int64
	StartedAt        time.Time
	Duration         time.Duration
	PagesFetched     int
	PagesUnchanged   int
	PagesFailed      int
	ResourcesFetched int
	ResourcesFailed  int
	FilesWritten     int
	BytesWritten     int64
	Published        bool
	CommitHash       string
	ErrorMessage     string
}

// LastRun returns the most recent run, or nil when no run is recorded.
func (sdb *StateDB) LastRun(ctx context.Context) (*RunRecord, error) {
	runs, err := sdb.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, newest first.
func (sdb *StateDB) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, duration_ms,
		pages_fetched, pages_unchanged, pages_failed,
		resources_fetched, resources_failed,
		files_written, bytes_written,
		published, commit_hash, error
	FROM runs
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := sdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var startedAt string
		var durationMS int64
		var published int
		var commitHash, errorMessage sql.NullString

		err := rows.Scan(
			&run.ID, &startedAt, &durationMS,
			&run.PagesFetched, &run.PagesUnchanged, &run.PagesFailed,
			&run.ResourcesFetched, &run.ResourcesFailed,
			&run.FilesWritten, &run.BytesWritten,
			&published, &commitHash, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(startedAt)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Published = published != 0
		run.CommitHash = commitHash.String
		run.ErrorMessage = errorMessage.String

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
