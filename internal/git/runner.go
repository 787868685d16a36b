// Package git publishes the generated mirror tree to a git branch.
//
// Design decision: We shell out to the git binary rather than linking a
// git implementation because:
//  1. The mirror repo is also managed by humans with plain git; behavior
//     must match exactly (hooks, config, credential helpers)
//  2. Pushing needs the user's existing auth setup (SSH agent, helpers)
//  3. The operations used are a handful of porcelain commands
package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Command is a single git invocation.
type Command struct {
	// WorkDir is the directory to run in. Empty means the current
	// working directory.
	WorkDir string

	// Args are the arguments after "git".
	Args []string
}

// Runner executes git commands. The interface exists so the publisher
// can be tested without a git binary or a real repository.
type Runner interface {
	// Execute runs a git command and returns its trimmed stdout.
	Execute(ctx context.Context, cmd Command) (string, error)
}

// execRunner runs git via os/exec.
type execRunner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner backed by the git binary.
func NewRunner(logger *slog.Logger) Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &execRunner{logger: logger}
}

// Execute implements Runner.
func (r *execRunner) Execute(ctx context.Context, command Command) (string, error) {
	if len(command.Args) == 0 {
		return "", fmt.Errorf("git command has no arguments")
	}

	cmd := exec.CommandContext(ctx, "git", command.Args...)
	cmd.Dir = command.WorkDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("running git", "args", command.Args, "dir", command.WorkDir)

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", command.Args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", command.Args[0], err)
	}

	return strings.TrimSpace(string(out)), nil
}
