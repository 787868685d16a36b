// Package main provides the entry point for the wikimirror CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikimirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikimirror",
		Short: "Static mirror generator for MediaWiki installations",
		Long: `wikimirror maintains a static mirror of a MediaWiki installation.

It enumerates every page through the MediaWiki API, downloads the
rendered HTML, rewrites links and resources so the tree is fully
self-contained, and commits the result to a dedicated git branch.

The generated content lives on its own branch (default "mirror") so
regenerating the mirror never touches the tooling history.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
