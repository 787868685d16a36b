package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/config"
	"github.com/gucci-on-fleek/context-wiki-mirror/internal/database"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mirror state and recent runs",
		Long: `Status reads the local state database and prints the number of
mirrored pages and resources along with the most recent runs.

Examples:
  # Show state from the default database location
  wikimirror status

  # Show the last ten runs
  wikimirror status --runs 10`,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory containing the state database")
	cmd.Flags().Int("runs", 5,
		"Number of recent runs to display")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	runLimit, err := cmd.Flags().GetInt("runs")
	if err != nil {
		return err
	}

	// Open read-only: status must never create an empty database
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no mirror state found in %s (run `wikimirror mirror` first): %w", dbDir, err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	pages, err := db.CountPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pages: %w", err)
	}
	resources, err := db.CountResources(ctx)
	if err != nil {
		return fmt.Errorf("failed to count resources: %w", err)
	}

	fmt.Fprintf(out, "Pages mirrored:     %d\n", pages)
	fmt.Fprintf(out, "Resources mirrored: %d\n", resources)

	runs, err := db.RecentRuns(ctx, runLimit)
	if err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "\nNo recorded runs.")
		return nil
	}

	fmt.Fprintf(out, "\nRecent runs (newest first):\n")
	for _, run := range runs {
		status := "ok"
		switch {
		case run.ErrorMessage != "":
			status = "error: " + run.ErrorMessage
		case run.PagesFailed > 0 || run.ResourcesFailed > 0:
			status = fmt.Sprintf("partial (%d page, %d resource failures)",
				run.PagesFailed, run.ResourcesFailed)
		}

		commit := "-"
		if run.Published && run.CommitHash != "" {
			commit = shortHash(run.CommitHash)
		}

		fmt.Fprintf(out, "  %s  %7s  %4d fetched  %4d unchanged  commit %s  %s\n",
			run.StartedAt.Format("2006-01-02 15:04"),
			run.Duration.Round(time.Second),
			run.PagesFetched,
			run.PagesUnchanged,
			commit,
			status,
		)
	}

	return nil
}

// shortHash abbreviates a commit hash for display.
func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
