package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tagscan/tagscan/internal/database"
	"github.com/tagscan/tagscan/internal/log"
	"github.com/tagscan/tagscan/internal/report"
	"github.com/tagscan/tagscan/internal/validate"
)

// NewStatsCmd creates the stats command.
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [domain]",
		Short: "Show aggregated statistics for a domain and tag",
		Long: `Stats reports aggregated counting statistics from the local database.

For the given domain it shows the number of distinct URLs checked, the
average fetch time over the last 24 hours, the total occurrences of the
tag across the domain, and the total occurrences of the tag across all
domains.

Examples:
  tagscan stats example.com --tag img
  tagscan stats example.com --tag div --json
  tagscan stats example.com --tag img --markdown -o report.md`,
		Args: cobra.ExactArgs(1),
		RunE: runStatsCmd,
	}

	cmd.Flags().StringP("tag", "t", "", "HTML tag name (required)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output in Markdown format")
	cmd.Flags().StringP("output", "o", "", "Write report to file instead of stdout")
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .tagscan in current or home directory)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")
	if err := cmd.MarkFlagRequired("tag"); err != nil {
		panic(err)
	}
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runStatsCmd executes the stats command.
func runStatsCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	tag, err := cmd.Flags().GetString("tag")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	domain := strings.ToLower(strings.TrimSpace(args[0]))
	if domain == "" {
		return validate.ErrMissingHost
	}
	tag, err = validate.New(cfg).Tag(tag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(cfg.DBDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	stats, err := store.Aggregator().Aggregate(ctx, domain, tag)
	if err != nil {
		return fmt.Errorf("failed to aggregate statistics: %w", err)
	}

	var output io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case jsonOut:
		writer = report.NewJSONWriter(output)
	case markdownOut:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output)
	}

	return writer.Write(&report.Stats{
		Domain:      domain,
		Tag:         tag,
		Statistics:  *stats,
		GeneratedAt: time.Now().UTC(),
	})
}
