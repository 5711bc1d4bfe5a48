package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tagscan/tagscan/internal/database"
	"github.com/tagscan/tagscan/internal/log"
	"github.com/tagscan/tagscan/internal/pipeline"
	"github.com/tagscan/tagscan/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Serve starts the HTTP API for counting HTML tags.

Endpoints:
  POST /api/v1/count  {"url": ..., "tag": ..., "bypass_cache": false}
  GET  /healthz
  GET  /metrics       Prometheus metrics

Requests are rate limited per client IP with sliding windows of one
minute and one hour.

Examples:
  tagscan serve
  tagscan serve --listen :9090 --db-dir /var/lib/tagscan`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address (default :8080)")
	cmd.Flags().StringP("config", "c", "", "Configuration file path (default: .tagscan in current or home directory)")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if listen, err := cmd.Flags().GetString("listen"); err != nil {
		return err
	} else if listen != "" {
		cfg.ListenAddr = listen
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

	p := pipeline.New(cfg, store, pipeline.WithLogger(logger))
	srv := server.New(cfg, p, logger)

	return srv.Run(ctx)
}
