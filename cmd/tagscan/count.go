package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tagscan/tagscan/internal/config"
	"github.com/tagscan/tagscan/internal/database"
	"github.com/tagscan/tagscan/internal/log"
	"github.com/tagscan/tagscan/internal/model"
	"github.com/tagscan/tagscan/internal/pipeline"
)

// NewCountCmd creates the count command.
func NewCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [url]...",
		Short: "Count occurrences of an HTML tag on one or more pages",
		Long: `Count fetches each URL, counts occurrences of the given HTML tag, and
prints the count together with aggregate statistics for the page's
domain. Results and statistics are persisted locally, and a repeated
request within the freshness window is served from the cache.

Examples:
  # Count <img> tags on one page
  tagscan count https://example.com --tag img

  # Count across several pages concurrently
  tagscan count https://example.com https://example.org --tag div

  # Force a fresh fetch even when a cached result exists
  tagscan count https://example.com --tag img --no-cache

  # Machine-readable output
  tagscan count https://example.com --tag img --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCountCmd,
	}

	cmd.Flags().StringP("tag", "t", "", "HTML tag name to count (required)")
	cmd.Flags().Bool("no-cache", false, "Bypass the result cache and always fetch")
	cmd.Flags().BoolP("json", "j", false, "Output results as JSON")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of concurrent fetches")
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .tagscan in current or home directory)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

// runCountCmd executes the count command.
func runCountCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	tag, err := cmd.Flags().GetString("tag")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	p := pipeline.New(cfg, store, pipeline.WithLogger(logger))

	responses, err := p.ProcessBatch(ctx, args, tag, noCache)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(responses); err != nil {
			return err
		}
	} else {
		for i, resp := range responses {
			printResponse(cmd, args[i], resp)
		}
	}

	for _, resp := range responses {
		if resp != nil && !resp.Success {
			return errors.New("one or more counts failed")
		}
	}
	return nil
}

// printResponse writes one human-readable result.
func printResponse(cmd *cobra.Command, url string, resp *model.Response) {
	out := cmd.OutOrStdout()
	if resp == nil {
		fmt.Fprintf(out, "%s: cancelled\n", url)
		return
	}
	if !resp.Success {
		fmt.Fprintf(out, "%s: %s\n", url, resp.Error)
		return
	}

	cached := ""
	if resp.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(out, "%s: %d <%s> tags in %dms%s\n",
		resp.Result.URL, resp.Result.Count, resp.Result.Tag, resp.Result.FetchTimeMs, cached)
	fmt.Fprintf(out, "  domain: %d urls, avg fetch %dms, <%s> total %d (global %d)\n",
		resp.Statistics.DomainURLCount,
		resp.Statistics.DomainAvgFetchTimeMs,
		resp.Result.Tag,
		resp.Statistics.DomainTagTotal,
		resp.Statistics.GlobalTagTotal,
	)
}

// buildConfig creates a Config from cobra command flags and the optional
// configuration file. Flag values take precedence over file values.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.Verbose = getVerboseFlag(cmd)

	if cmd.Flags().Lookup("config") != nil {
		cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
		if err != nil {
			return nil, err
		}
	}

	// If the user explicitly specified a config file, a missing file is
	// an error; otherwise silently run on defaults.
	explicit := cfg.ConfigFilePath != ""
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.Apply(cf)
	} else if explicit {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if cmd.Flags().Lookup("db-dir") != nil {
		dbDir, err := cmd.Flags().GetString("db-dir")
		if err != nil {
			return nil, err
		}
		if dbDir != "" {
			cfg.DBDir = dbDir
		}
	}

	if cmd.Flags().Lookup("batch") != nil {
		cfg.BatchSize, err = cmd.Flags().GetInt("batch")
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
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
