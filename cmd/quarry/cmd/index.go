package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/index"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/output"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/ui"
	"github.com/quarrysearch/quarry/internal/watcher"
)

type indexFlags struct {
	watch    bool
	force    bool
	plain    bool
	noIgnore bool
	model    string
	workers  int
	excludes []string
}

func newIndexCmd() *cobra.Command {
	flags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or refresh the search index",
		Long: `Index the project tree for lexical and semantic search.

Files are chunked along code structure and embedded through the
configured model; results live in per-file sidecars under .quarry/.
Reruns are incremental: unchanged files are skipped by fingerprint,
deleted files lose their sidecars, and --force rebuilds everything.

When the embedding backend is unreachable the run still indexes
structure, so lexical search works; semantic search needs a later
run with the backend up.`,
		Example: `  # Index the current project
  quarry index

  # Rebuild from scratch with a specific model
  quarry index --force --model BAAI/bge-small-en-v1.5

  # Keep the index fresh while editing
  quarry index --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(cmd.Context(), cmd, path, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Keep running and reindex on file changes")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Rebuild every file regardless of fingerprints")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Plain progress output, no TUI")
	cmd.Flags().BoolVar(&flags.noIgnore, "no-ignore", false, "Do not honor .gitignore files")
	cmd.Flags().StringVar(&flags.model, "model", "", "Embedding model (default from config)")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Parallel chunking workers (default from config)")
	cmd.Flags().StringArrayVar(&flags.excludes, "exclude", nil, "Glob pattern to exclude (repeatable)")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string, f *indexFlags) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
		defer cleanup()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return qerrors.FileAccessError(path, "stat", err)
	}
	if !info.IsDir() {
		return qerrors.New(qerrors.ErrCodeInvalidPath,
			fmt.Sprintf("%s is not a directory", absPath), nil)
	}

	root, err := config.FindProjectRoot(absPath)
	if err != nil {
		root = absPath
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	lock, err := index.AcquireLock(root)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	out := output.New(cmd.OutOrStdout())
	embedder, err := buildIndexEmbedder(ctx, cfg, f.model, out)
	if err != nil {
		return err
	}
	defer func() { _ = embedder.Close() }()

	opts := index.Options{
		Force:         f.force,
		Excludes:      mergeExcludes(cfg, f.excludes),
		RespectIgnore: !f.noIgnore,
		Workers:       indexWorkers(cfg, f.workers),
		MaxFileSize:   int64(cfg.Index.MaxFileSizeMB) * 1024 * 1024,
		Embedder:      embedder,
		Logger:        slog.Default(),
	}

	renderer := ui.NewRenderer(ui.Config{
		Output:  cmd.OutOrStdout(),
		Plain:   f.plain,
		NoColor: ui.DetectNoColor(),
		Root:    root,
	})
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("progress renderer failed to start", slog.String("error", err.Error()))
	}

	opts.Observer = renderer
	stats, err := index.Update(ctx, root, opts)
	if err != nil {
		_ = renderer.Stop()
		return err
	}
	renderer.Complete(stats)
	if err := renderer.Stop(); err != nil {
		slog.Warn("progress renderer stop failed", slog.String("error", err.Error()))
	}

	if !f.watch {
		return nil
	}
	return watchLoop(ctx, cmd, root, cfg, opts)
}

// buildIndexEmbedder creates the embedder for an index run. An
// unreachable backend degrades to structure-only indexing; a bad model
// name stays a hard error.
func buildIndexEmbedder(ctx context.Context, cfg *config.Config, modelFlag string, out *output.Writer) (embed.Embedder, error) {
	model := modelFlag
	if model == "" {
		model = cfg.Embedding.Model
	}

	embedder, err := embed.New(ctx, embed.Config{
		Model:     model,
		Host:      cfg.Embedding.OllamaHost,
		BatchSize: cfg.Embedding.BatchSize,
	})
	if err == nil {
		return embedder, nil
	}

	var qerr *qerrors.QuarryError
	if errors.As(err, &qerr) && qerr.Category == qerrors.CategoryValidation {
		return nil, err
	}

	out.Warningf("embedding backend unavailable: %v", err)
	out.Detail("indexing structure only; run 'quarry index' again once the backend is up")
	slog.Warn("index_embedder_unavailable", slog.String("model", model), slog.String("error", err.Error()))
	return embed.New(ctx, embed.Config{Model: embed.ModelNone})
}

// indexWorkers picks the worker count: flag, then config, then the
// package default.
func indexWorkers(cfg *config.Config, flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Index.Workers
}

// watchLoop reindexes on debounced file-change batches until the
// context is canceled.
func watchLoop(ctx context.Context, cmd *cobra.Command, root string, cfg *config.Config, opts index.Options) error {
	w, err := watcher.New(watcher.Options{
		Debounce: cfg.WatchDebounceDuration(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	go func() {
		if err := w.Start(ctx, root); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	out := output.New(cmd.OutOrStdout())
	out.Statusf(output.IconInfo, "watching %s (Ctrl-C to stop)", root)

	// Watch updates run quietly; each batch reports one line.
	opts.Force = false
	opts.Observer = index.NopObserver{}

	batches := w.Batches()
	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			out.Newline()
			out.Status(output.IconInfo, "stopped")
			return nil
		case batch, ok := <-batches:
			if !ok {
				return nil
			}
			reindexBatch(ctx, root, opts, batch, out)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// reindexBatch turns one debounced event batch into an incremental
// update. Ignore-rule changes force a full walk, deletions only need an
// orphan sweep. Failures are reported and watching continues.
func reindexBatch(ctx context.Context, root string, opts index.Options, batch []watcher.Event, out *output.Writer) {
	var changed []string
	deletions := false
	fullWalk := false

	for _, ev := range batch {
		if filepath.Base(ev.Path) == ".gitignore" {
			fullWalk = true
		}
		switch ev.Op {
		case watcher.OpDelete, watcher.OpRename:
			deletions = true
		default:
			// The path may be gone again by now; vanished paths are
			// deletions.
			if _, err := os.Stat(filepath.Join(root, ev.Path)); err != nil {
				deletions = true
				continue
			}
			changed = append(changed, ev.Path)
		}
	}

	if fullWalk {
		changed = nil
	}

	if fullWalk || len(changed) > 0 {
		opts.Paths = changed
		stats, err := index.Update(ctx, root, opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			out.Errorf("reindex failed: %v", err)
			return
		}
		out.Successf("%d files updated, %d chunks, %s",
			stats.FilesIndexed+stats.FilesRefreshed, stats.ChunksCreated,
			stats.Duration.Round(time.Millisecond))
	}

	if deletions {
		removed, err := store.CleanOrphans(root)
		if err != nil {
			out.Errorf("orphan sweep failed: %v", err)
			return
		}
		if removed > 0 {
			out.Statusf(output.IconInfo, "%d orphaned entries removed", removed)
		}
	}
}
