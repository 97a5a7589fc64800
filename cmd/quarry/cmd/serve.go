package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/mcp"
	"github.com/quarrysearch/quarry/internal/search"
	"github.com/quarrysearch/quarry/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search over MCP stdio",
		Long: `Run the MCP server on stdin/stdout for clients like editors and
coding assistants. The server exposes the search engine and read-only
index resources; it never writes the index.

Stdout carries the protocol, so all diagnostics go to the log file.
Build the index with 'quarry index' before serving; without one only
regex and lexical search answer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	// Stdout belongs to the protocol from here on.
	cleanup, err := logging.SetupServeMode()
	if err == nil {
		defer cleanup()
	}

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	engineOpts := []search.Option{search.WithLogger(slog.Default())}

	embedder, err := embed.New(ctx, embed.Config{
		Model:     cfg.Embedding.Model,
		Host:      cfg.Embedding.OllamaHost,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err != nil {
		slog.Warn("embedder unavailable, semantic modes will report errors",
			slog.String("model", cfg.Embedding.Model),
			slog.String("error", err.Error()))
	} else {
		defer func() { _ = embedder.Close() }()
		engineOpts = append(engineOpts, search.WithEmbedder(embedder))
	}

	var recorder *telemetry.Recorder
	if cfg.Telemetry.Enabled {
		recorder, err = telemetry.Open(telemetryPath(root, cfg))
		if err != nil {
			slog.Warn("telemetry unavailable", slog.String("error", err.Error()))
			recorder = nil
		} else {
			defer func() { _ = recorder.Close() }()
			engineOpts = append(engineOpts, search.WithTelemetry(recorder))
		}
	}

	engine, err := search.New(root, engineOpts...)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(root, engine,
		mcp.WithLogger(slog.Default()),
		mcp.WithModel(cfg.Embedding.Model),
		mcp.WithTelemetry(recorder),
	)
	if err != nil {
		return err
	}

	if err := server.RegisterResources(); err != nil {
		slog.Warn("resource registration failed", slog.String("error", err.Error()))
	}

	slog.Info("serve_started", slog.String("root", root))
	return server.Serve(ctx)
}
