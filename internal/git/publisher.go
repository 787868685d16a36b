package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Publisher commits the generated mirror tree onto a dedicated branch.
//
// The publisher only ever touches its configured branch. The tooling
// branch of the repository (scripts, workflow files) is left alone; the
// mirror content lives on its own branch with its own history.
type Publisher struct {
	// runner executes git commands.
	runner Runner

	// workDir is the repository worktree containing the mirror output.
	workDir string

	// branch is the content branch to commit on.
	branch string

	// remote is the remote to push to.
	remote string

	// authorName and authorEmail identify the automated committer.
	authorName  string
	authorEmail string

	// logger for structured logging.
	logger *slog.Logger
}

// ErrNoBranch is returned when a Publisher is created without a branch.
var ErrNoBranch = errors.New("publish branch is not configured")

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithRunner replaces the git runner, mainly for tests.
func WithRunner(runner Runner) PublisherOption {
	return func(p *Publisher) {
		p.runner = runner
	}
}

// WithRemote sets the remote to push to. Defaults to "origin".
func WithRemote(remote string) PublisherOption {
	return func(p *Publisher) {
		p.remote = remote
	}
}

// WithIdentity sets the committer identity used for mirror commits.
func WithIdentity(name, email string) PublisherOption {
	return func(p *Publisher) {
		p.authorName = name
		p.authorEmail = email
	}
}

// WithPublisherLogger sets a custom logger.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a Publisher for the repository at workDir.
func NewPublisher(workDir, branch string, opts ...PublisherOption) (*Publisher, error) {
	if branch == "" {
		return nil, ErrNoBranch
	}

	p := &Publisher{
		workDir:     workDir,
		branch:      branch,
		remote:      "origin",
		authorName:  "context-wiki-mirror",
		authorEmail: "wikimirror@invalid",
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.runner == nil {
		p.runner = NewRunner(p.logger)
	}

	return p, nil
}

// Result describes the outcome of a publish.
type Result struct {
	// Committed reports whether a commit was created. False when the
	// tree was identical to the previous commit.
	Committed bool

	// CommitHash is the hash of the new commit, when one was created.
	CommitHash string

	// Pushed reports whether the branch was pushed to the remote.
	Pushed bool
}

// Publish stages the worktree, commits it on the content branch with the
// given message, and optionally pushes. An unchanged tree produces no
// commit and no push.
func (p *Publisher) Publish(ctx context.Context, message string, push bool) (*Result, error) {
	if err := p.ensureBranch(ctx); err != nil {
		return nil, err
	}

	if _, err := p.run(ctx, "add", "-A"); err != nil {
		return nil, fmt.Errorf("failed to stage mirror tree: %w", err)
	}

	status, err := p.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to check worktree status: %w", err)
	}
	if status == "" {
		p.logger.Info("mirror tree unchanged, nothing to commit")
		return &Result{}, nil
	}

	_, err = p.run(ctx,
		"-c", "user.name="+p.authorName,
		"-c", "user.email="+p.authorEmail,
		"commit", "-m", message,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to commit mirror tree: %w", err)
	}

	hash, err := p.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to read commit hash: %w", err)
	}

	result := &Result{Committed: true, CommitHash: hash}
	p.logger.Info("committed mirror tree", "branch", p.branch, "commit", hash)

	if push {
		if _, err := p.run(ctx, "push", p.remote, p.branch); err != nil {
			return result, fmt.Errorf("failed to push %s to %s: %w", p.branch, p.remote, err)
		}
		result.Pushed = true
		p.logger.Info("pushed mirror branch", "remote", p.remote, "branch", p.branch)
	}

	return result, nil
}

// ensureBranch makes sure the worktree is a repository checked out on the
// content branch. A missing repository is initialized; a missing branch
// is created as an orphan so mirror history never entangles with the
// tooling branch.
func (p *Publisher) ensureBranch(ctx context.Context) error {
	if _, err := p.run(ctx, "rev-parse", "--git-dir"); err != nil {
		if _, err := p.run(ctx, "init"); err != nil {
			return fmt.Errorf("failed to initialize repository: %w", err)
		}
	}

	current, err := p.run(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err == nil && current == p.branch {
		return nil
	}

	// Generated files are untracked on other branches, so switching
	// never discards them.
	if _, err := p.run(ctx, "rev-parse", "--verify", "refs/heads/"+p.branch); err == nil {
		if _, err := p.run(ctx, "checkout", p.branch); err != nil {
			return fmt.Errorf("failed to check out branch %s: %w", p.branch, err)
		}
		return nil
	}

	if _, err := p.run(ctx, "checkout", "--orphan", p.branch); err != nil {
		return fmt.Errorf("failed to create orphan branch %s: %w", p.branch, err)
	}

	return nil
}

// run executes a git command in the publisher's worktree.
func (p *Publisher) run(ctx context.Context, args ...string) (string, error) {
	return p.runner.Execute(ctx, Command{WorkDir: p.workDir, Args: args})
}
