// Package cli provides the command-line interface for buginspector.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "buginspector",
		Short: "Find and track bugs in source code",
		Long: `buginspector scans source files for suspicious patterns and keeps the
findings in a local bug store.

It detects:
  - Line patterns per language (syntax, logic, security, performance, style)
  - Python syntax errors
  - Python structure issues (missing docstrings, bare except, eval/exec)

Findings are tracked through a lifecycle (open, in_progress, fixed, closed,
wont_fix, duplicate), can be searched and reported on, and exported to JSON,
CSV or SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	g.AddFlags(rootCmd)
	rootCmd.AddCommand(commands.NewCommands(g)...)

	return rootCmd
}
