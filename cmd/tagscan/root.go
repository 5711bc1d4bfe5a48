// Package main provides the entry point for the tagscan CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for tagscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagscan",
		Short: "Count HTML tag usage on web pages",
		Long: `tagscan fetches a web page, counts occurrences of an HTML tag, and
tracks aggregate usage statistics for the page's domain.

Repeated identical requests within the freshness window are served from
a cache, and all activity is subject to sliding-window rate limits.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCountCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewStatsCmd())
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
