package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/config"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/crawler"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/database"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/git"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/log"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/mediawiki"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/pipeline"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/report"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/site"
	"github.com/spf13/cobra"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [wiki-url]",
		Short: "Mirror a MediaWiki installation into a static tree",
		Long: `Mirror enumerates every non-redirect page of a MediaWiki installation,
downloads the rendered HTML, rewrites it into a self-contained static
tree, and commits the tree to a dedicated git branch.

Subsequent runs are incremental: pages whose content is unchanged since
the last run are detected by content hash and skipped.

Examples:
  # Mirror the default wiki into ./mirror
  wikimirror mirror

  # Mirror another wiki and push the result
  wikimirror mirror https://wiki.example.org/ --push

  # Authenticated mirroring with a bot password
  wikimirror mirror --credentials credentials.toml

  # Full rebuild, ignoring the incremental state
  wikimirror mirror --full

  # Write a Markdown run report next to the mirror
  wikimirror mirror --markdown --report mirror-report.md

Configuration file (.wikimirror) example:
  wikis:
    wiki.contextgarden.net:
      entryPage: "Main Page"
      ignorePatterns:
        - "/images/thumb/*"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMirrorCmd,
	}

	// Upstream flags
	cmd.Flags().StringP("credentials", "C", "",
		"TOML credentials file for authenticated mirroring (username/password)")
	cmd.Flags().String("entry-page", config.DefaultEntryPage,
		"Page title index.html redirects to")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each upstream request")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Politeness delay between upstream requests")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent page/resource fetches")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to mirror in one run")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory the static mirror tree is written into")
	cmd.Flags().BoolP("full", "f", false,
		"Rebuild every page even when its content is unchanged")

	// Publish flags
	cmd.Flags().StringP("branch", "B", config.DefaultBranch,
		"Git branch that receives the generated tree")
	cmd.Flags().String("remote", config.DefaultRemote,
		"Git remote the mirror branch is pushed to")
	cmd.Flags().Bool("push", false,
		"Push the mirror branch after a successful commit")
	cmd.Flags().Bool("no-publish", false,
		"Skip the git commit entirely; only write the static tree")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wikimirror in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "r", "",
		"Write the run report to the specified file instead of stdout")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMirror(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	if len(args) > 0 {
		cfg.WikiURL = args[0]
	}

	var err error

	cfg.CredentialsFile, err = cmd.Flags().GetString("credentials")
	if err != nil {
		return nil, err
	}
	if cfg.CredentialsFile != "" {
		cfg.Credentials, err = config.LoadCredentials(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials from %s: %w", cfg.CredentialsFile, err)
		}
	}

	cfg.EntryPage, err = cmd.Flags().GetString("entry-page")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Full, err = cmd.Flags().GetBool("full")
	if err != nil {
		return nil, err
	}

	cfg.Branch, err = cmd.Flags().GetString("branch")
	if err != nil {
		return nil, err
	}

	cfg.Remote, err = cmd.Flags().GetString("remote")
	if err != nil {
		return nil, err
	}

	cfg.Push, err = cmd.Flags().GetBool("push")
	if err != nil {
		return nil, err
	}

	cfg.NoPublish, err = cmd.Flags().GetBool("no-publish")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-wiki configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Wikis: make(map[string]config.WikiConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}

	// Always persist mirror state using the XDG data directory so that
	// the next run can detect unchanged pages
	cfg.SaveState = true
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The handler is wrapped so credentials and session material never
// reach the log output.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := log.NewSecureHandler(slog.NewTextHandler(os.Stderr, opts))
	return slog.New(handler)
}

// headerTransport injects configured HTTP headers into every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	return t.base.RoundTrip(clone)
}

// runMirror executes the mirror run.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Apply per-wiki overrides from the config file
	wikiCfg := cfg.SiteConfigs.GetWikiConfig(cfg.WikiHost())
	if wikiCfg.EntryPage != "" {
		cfg.EntryPage = wikiCfg.EntryPage
	}
	if wikiCfg.MaxPages > 0 {
		cfg.MaxPages = wikiCfg.MaxPages
	}

	logger.Info("starting mirror",
		"wiki", cfg.WikiURL,
		"output", cfg.OutputDir,
		"branch", cfg.Branch,
		"batchSize", cfg.BatchSize,
		"full", cfg.Full,
	)

	// Open the state database for incremental detection
	var db *database.StateDB
	if cfg.SaveState {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer db.Close()
		logger.Info("state database opened", "dir", cfg.DBDir)
	}

	client, err := newWikiClient(cfg, wikiCfg, logger)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, wikiCfg, client, db, logger)
	if err != nil {
		return err
	}

	mirrorReport := model.NewMirrorReport(cfg.WikiURL, cfg.EntryPage)
	mirrorReport.Branch = cfg.Branch

	fmt.Printf("Mirroring %s...\n", cfg.WikiURL)
	startTime := time.Now()

	execErr := p.Execute(ctx, mirrorReport)
	mirrorReport.Duration = time.Since(startTime)

	if execErr != nil {
		logger.Error("mirror failed", "wiki", cfg.WikiURL, "error", execErr)
	} else {
		fmt.Printf("Mirror completed in %s\n\n", mirrorReport.Duration.Round(time.Millisecond))
	}

	// Output the run report even for failed runs; partial counters help
	// diagnose what went wrong
	if err := outputReport(cfg, mirrorReport); err != nil {
		logger.Error("report output failed", "error", err)
	}

	// Record the run for `wikimirror status`
	if db != nil {
		if err := db.RecordRun(ctx, mirrorReport); err != nil {
			logger.Error("failed to record run", "error", err)
		}
	}

	return execErr
}

// newWikiClient builds the MediaWiki API client from the configuration.
func newWikiClient(cfg *config.Config, wikiCfg config.WikiConfig, logger *slog.Logger) (*mediawiki.Client, error) {
	opts := []mediawiki.Option{
		mediawiki.WithUserAgent(cfg.UserAgent),
		mediawiki.WithTimeout(cfg.Timeout),
		mediawiki.WithMaxBodySize(cfg.MaxBodySize),
		mediawiki.WithLogger(logger),
	}

	if cfg.Credentials != nil {
		opts = append(opts, mediawiki.WithCredentials(cfg.Credentials.Username, cfg.Credentials.Password))
	}

	if len(wikiCfg.Headers) > 0 {
		opts = append(opts, mediawiki.WithHTTPClient(&http.Client{
			Transport: &headerTransport{
				base:    http.DefaultTransport,
				headers: wikiCfg.Headers,
			},
			Timeout: cfg.Timeout,
		}))
	}

	client, err := mediawiki.NewClient(cfg.WikiURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create wiki client: %w", err)
	}

	return client, nil
}

// buildPipeline assembles the mirror pipeline from the configuration.
func buildPipeline(cfg *config.Config, wikiCfg config.WikiConfig, client *mediawiki.Client, db *database.StateDB, logger *slog.Logger) (*pipeline.Pipeline, error) {
	fetcherOpts := []pipeline.FetcherOption{
		pipeline.WithFetchConcurrency(cfg.BatchSize),
		pipeline.WithFetchDelay(cfg.Delay),
		pipeline.WithFetcherLogger(logger),
	}
	if db != nil {
		fetcherOpts = append(fetcherOpts, pipeline.WithStateDB(db))
	}

	harvesterOpts := []crawler.HarvesterOption{
		crawler.WithDelay(cfg.Delay),
		crawler.WithBatchSize(cfg.BatchSize),
		crawler.WithHarvesterUserAgent(cfg.UserAgent),
		crawler.WithHarvesterMaxBodySize(cfg.MaxBodySize),
		crawler.WithHarvesterLogger(logger),
	}
	if len(wikiCfg.IgnorePatterns) > 0 {
		harvesterOpts = append(harvesterOpts, crawler.WithIgnorePatterns(wikiCfg.IgnorePatterns))
	}
	if len(wikiCfg.FollowPatterns) > 0 {
		harvesterOpts = append(harvesterOpts, crawler.WithFollowPatterns(wikiCfg.FollowPatterns))
	}

	var publisher *git.Publisher
	if !cfg.NoPublish {
		var err error
		publisher, err = git.NewPublisher(cfg.OutputDir, cfg.Branch,
			git.WithRemote(cfg.Remote),
			git.WithPublisherLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewLoginStep(client, cfg.Credentials != nil, logger),
		pipeline.NewListPagesStep(client, cfg.MaxPages, logger),
		pipeline.NewFetchPagesStep(pipeline.NewPageFetcher(client, fetcherOpts...)),
		pipeline.NewHarvestResourcesStep(crawler.NewHarvester(client.HTTPClient(), harvesterOpts...), db),
		pipeline.NewRewriteStep(),
		pipeline.NewWriteSiteStep(site.NewWriter(cfg.OutputDir, site.WithWriterLogger(logger)), cfg.Full),
		pipeline.NewPublishStep(publisher, cfg.Push, logger),
	)

	return p, nil
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, mirrorReport *model.MirrorReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(mirrorReport)
	return err
}
