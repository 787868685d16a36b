package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/crawler"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/database"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/git"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/mediawiki"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/rewrite"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/site"
)

// Step names, in execution order.
const (
	StepLogin            = "login"
	StepListPages        = "list_pages"
	StepFetchPages       = "fetch_pages"
	StepHarvestResources = "harvest_resources"
	StepRewrite          = "rewrite"
	StepWriteSite        = "write_site"
	StepPublish          = "publish"
)

// LoginStep authenticates against the wiki when credentials are
// configured. Without credentials the mirror runs anonymously, which
// public wikis allow; with credentials a failed login is fatal, because
// silently degrading to anonymous would hide a broken bot password.
type LoginStep struct {
	client  *mediawiki.Client
	enabled bool
	logger  *slog.Logger
}

// NewLoginStep creates the login step. enabled should be true exactly
// when credentials are configured.
func NewLoginStep(client *mediawiki.Client, enabled bool, logger *slog.Logger) *LoginStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginStep{client: client, enabled: enabled, logger: logger}
}

// Name returns the step name.
func (s *LoginStep) Name() string { return StepLogin }

// Do implements Step.
func (s *LoginStep) Do(ctx context.Context, _ *model.MirrorReport) error {
	if !s.enabled {
		s.logger.Info("no credentials configured, mirroring anonymously")
		return nil
	}

	if err := s.client.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return nil
}

// ListPagesStep enumerates every non-redirect page on the wiki and seeds
// the report's page set, including each page's mirror path.
type ListPagesStep struct {
	client   *mediawiki.Client
	maxPages int
	logger   *slog.Logger
}

// NewListPagesStep creates the page enumeration step. maxPages of 0
// means unlimited.
func NewListPagesStep(client *mediawiki.Client, maxPages int, logger *slog.Logger) *ListPagesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListPagesStep{client: client, maxPages: maxPages, logger: logger}
}

// Name returns the step name.
func (s *ListPagesStep) Name() string { return StepListPages }

// Do implements Step.
func (s *ListPagesStep) Do(ctx context.Context, report *model.MirrorReport) error {
	infos, err := s.client.ListAllPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate pages: %w", err)
	}

	if s.maxPages > 0 && len(infos) > s.maxPages {
		s.logger.Warn("page list truncated",
			"listed", len(infos),
			"max_pages", s.maxPages,
		)
		infos = infos[:s.maxPages]
	}

	for _, info := range infos {
		report.Pages = append(report.Pages, &model.WikiPage{
			PageID:    info.PageID,
			Namespace: info.Namespace,
			Title:     info.Title,
			Path:      site.PagePath(info.Title),
			URL:       s.client.RenderURL(info.PageID),
		})
	}

	s.logger.Info("enumerated pages", "count", len(report.Pages))

	return nil
}

// FetchPagesStep downloads the rendered HTML of every enumerated page.
type FetchPagesStep struct {
	fetcher *PageFetcher
}

// NewFetchPagesStep creates the page fetch step.
func NewFetchPagesStep(fetcher *PageFetcher) *FetchPagesStep {
	return &FetchPagesStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchPagesStep) Name() string { return StepFetchPages }

// Do implements Step.
func (s *FetchPagesStep) Do(ctx context.Context, report *model.MirrorReport) error {
	return s.fetcher.FetchAll(ctx, report)
}

// HarvestResourcesStep downloads the images, stylesheets, and media the
// fetched pages reference on the wiki host.
type HarvestResourcesStep struct {
	harvester *crawler.Harvester
	db        *database.StateDB
}

// NewHarvestResourcesStep creates the resource harvest step.
// db may be nil when no state is kept.
func NewHarvestResourcesStep(harvester *crawler.Harvester, db *database.StateDB) *HarvestResourcesStep {
	return &HarvestResourcesStep{harvester: harvester, db: db}
}

// Name returns the step name.
func (s *HarvestResourcesStep) Name() string { return StepHarvestResources }

// Do implements Step.
func (s *HarvestResourcesStep) Do(ctx context.Context, report *model.MirrorReport) error {
	resources, failures := s.harvester.Harvest(ctx, report.Pages)

	for _, failure := range failures {
		report.AddFailure(StepHarvestResources, failure.URL, failure.Err)
	}

	for _, resource := range resources {
		resource.Path = site.ResourcePath(resource.URL)
		report.AddResource(resource)

		if s.db != nil {
			if err := s.db.UpsertResource(ctx, resource); err != nil {
				return fmt.Errorf("failed to record resource state: %w", err)
			}
		}
	}

	return ctx.Err()
}

// RewriteStep rewrites every fetched page into a self-contained static
// document against the final page and resource sets.
type RewriteStep struct{}

// NewRewriteStep creates the rewrite step.
func NewRewriteStep() *RewriteStep {
	return &RewriteStep{}
}

// Name returns the step name.
func (s *RewriteStep) Name() string { return StepRewrite }

// Do implements Step.
func (s *RewriteStep) Do(_ context.Context, report *model.MirrorReport) error {
	rewriter, err := rewrite.NewRewriter(report.WikiURL, report.Pages, report.Resources)
	if err != nil {
		return err
	}

	for _, page := range report.Pages {
		if len(page.Rendered) == 0 {
			continue
		}
		if err := rewriter.RewritePage(page); err != nil {
			report.AddFailure(StepRewrite, page.URL, err)
		}
	}

	return nil
}

// WriteSiteStep writes the mirror tree: pages, resources, the index.html
// redirect, and sitemap.xml.
type WriteSiteStep struct {
	writer *site.Writer

	// full forces rewriting unchanged pages. Incremental runs skip them;
	// their files are already on disk from a previous run.
	full bool
}

// NewWriteSiteStep creates the site writing step.
func NewWriteSiteStep(writer *site.Writer, full bool) *WriteSiteStep {
	return &WriteSiteStep{writer: writer, full: full}
}

// Name returns the step name.
func (s *WriteSiteStep) Name() string { return StepWriteSite }

// Do implements Step.
func (s *WriteSiteStep) Do(_ context.Context, report *model.MirrorReport) error {
	for _, page := range report.Pages {
		if len(page.HTML) == 0 {
			continue
		}
		if !s.full && !page.Changed {
			continue
		}
		if err := s.writer.WritePage(page); err != nil {
			return fmt.Errorf("failed to write page %q: %w", page.Title, err)
		}
	}

	for _, resource := range report.Resources {
		if err := s.writer.WriteResource(resource); err != nil {
			return fmt.Errorf("failed to write resource %q: %w", resource.URL, err)
		}
	}

	if err := s.writer.WriteIndex(report.EntryPage); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := s.writer.WriteSitemap(report.Pages); err != nil {
		return fmt.Errorf("failed to write sitemap: %w", err)
	}

	report.FilesWritten, report.BytesWritten = s.writer.Stats()

	return nil
}

// PublishStep commits the mirror tree to the content branch and
// optionally pushes it.
type PublishStep struct {
	publisher *git.Publisher
	push      bool
	logger    *slog.Logger
}

// NewPublishStep creates the publish step. A nil publisher disables
// publishing entirely.
func NewPublishStep(publisher *git.Publisher, push bool, logger *slog.Logger) *PublishStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishStep{publisher: publisher, push: push, logger: logger}
}

// Name returns the step name.
func (s *PublishStep) Name() string { return StepPublish }

// Do implements Step.
func (s *PublishStep) Do(ctx context.Context, report *model.MirrorReport) error {
	if s.publisher == nil {
		s.logger.Info("publishing disabled")
		return nil
	}

	message := fmt.Sprintf("Mirror %s (%d pages, %d changed)",
		report.DateStarted.UTC().Format("2006-01-02 15:04"),
		report.PagesFetched,
		report.PagesFetched-report.PagesUnchanged,
	)

	result, err := s.publisher.Publish(ctx, message, s.push)
	if err != nil {
		return fmt.Errorf("failed to publish mirror: %w", err)
	}

	report.Published = result.Committed
	report.CommitHash = result.CommitHash
	report.Pushed = result.Pushed

	return nil
}
