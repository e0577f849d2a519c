// Package main provides the entry point for the githarvest CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githarvest/githarvest/cmd/githarvest/commands"
	"github.com/githarvest/githarvest/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "githarvest",
		Short: "githarvest - git history extraction pipeline",
		Long: `githarvest walks every branch and tag of a git repository and extracts
each commit with its branch membership, tags, classified file changes and
diff hunks into a pluggable storage backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewSinksCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "githarvest %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
