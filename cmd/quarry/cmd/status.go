package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/telemetry"
	"github.com/quarrysearch/quarry/internal/ui"
)

// backendProbeTimeout bounds the Ollama health check so status stays
// fast when the server is gone.
const backendProbeTimeout = 3 * time.Second

// orphanListCap limits how many orphaned paths the report names.
const orphanListCap = 10

func newStatusCmd() *cobra.Command {
	var (
		jsonOutput bool
		metrics    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health",
		Long: `Report the state of the index under the project root: file and
chunk counts, on-disk size, last update, orphaned entries, and
whether the configured embedding backend is reachable.

--metrics adds local query telemetry: mode counts, the latency
histogram, and recent queries that found nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput, metrics)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Include query telemetry")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput, metrics bool) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	stats, err := store.CollectStats(root)
	if err != nil {
		return err
	}
	if stats.Empty() {
		return qerrors.NotIndexed(root)
	}

	info := collectStatus(ctx, root, cfg, stats)

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	if err := renderer.Render(info); err != nil {
		return err
	}

	if len(stats.Orphans) > 0 {
		printOrphans(cmd.OutOrStdout(), stats.Orphans)
	}

	if metrics {
		if err := printMetrics(ctx, cmd.OutOrStdout(), root, cfg); err != nil {
			return err
		}
	}
	return nil
}

// collectStatus assembles the report, probing the embedding backend.
func collectStatus(ctx context.Context, root string, cfg *config.Config, stats *store.Stats) ui.StatusInfo {
	info := ui.StatusInfo{
		Root:          root,
		Files:         stats.TotalFiles,
		Chunks:        stats.TotalChunks,
		EmbeddedFiles: stats.EmbeddedFiles,
		SizeBytes:     stats.SizeBytes,
		LastIndexed:   stats.LastModified,
		Models:        stats.Models,
		Orphans:       len(stats.Orphans),
		Unreadable:    stats.Unreadable,
	}

	model, err := embed.Resolve(cfg.Embedding.Model)
	if err != nil {
		info.Model = cfg.Embedding.Model
		info.Backend = "unknown"
		info.BackendStatus = "unknown model"
		return info
	}

	info.Model = model.Name
	info.Backend = string(model.Provider)
	info.Dimensions = model.Dimensions
	info.BackendStatus = probeBackend(ctx, model, cfg.Embedding.OllamaHost)
	return info
}

// probeBackend reports whether the model's backend can serve right now:
// ready, offline (server up, model not pulled), or unreachable.
func probeBackend(ctx context.Context, model embed.Model, host string) string {
	if model.Provider != embed.ProviderOllama {
		return "ready"
	}

	client := embed.NewOllamaClient(host)
	defer client.Close()

	probeCtx, cancel := context.WithTimeout(ctx, backendProbeTimeout)
	defer cancel()

	if err := client.Health(probeCtx); err != nil {
		return "unreachable"
	}
	installed, err := client.HasModel(probeCtx, model.Tag)
	if err != nil || !installed {
		return "offline"
	}
	return "ready"
}

// printOrphans names the first few orphaned entries and how to drop
// them.
func printOrphans(w io.Writer, orphans []string) {
	_, _ = fmt.Fprintln(w)
	shown := orphans
	if len(shown) > orphanListCap {
		shown = shown[:orphanListCap]
	}
	for _, path := range shown {
		_, _ = fmt.Fprintf(w, "    %s\n", path)
	}
	if rest := len(orphans) - len(shown); rest > 0 {
		_, _ = fmt.Fprintf(w, "    ... and %d more\n", rest)
	}
	_, _ = fmt.Fprintf(w, "  run 'quarry clean --orphans' to remove them\n")
}

// printMetrics renders the local query telemetry snapshot.
func printMetrics(ctx context.Context, w io.Writer, root string, cfg *config.Config) error {
	path := telemetryPath(root, cfg)
	if !fileExists(path) {
		_, _ = fmt.Fprintf(w, "\nno query telemetry recorded yet\n")
		return nil
	}

	recorder, err := telemetry.Open(path)
	if err != nil {
		return fmt.Errorf("open telemetry: %w", err)
	}
	defer func() { _ = recorder.Close() }()

	snap, err := recorder.Snapshot(ctx, orphanListCap)
	if err != nil {
		return fmt.Errorf("read telemetry: %w", err)
	}

	_, _ = fmt.Fprintf(w, "\nqueries: %d total, %.0f%% with no results\n",
		snap.TotalQueries, snap.ZeroResultPercentage())

	if len(snap.ModeCounts) > 0 {
		_, _ = fmt.Fprintf(w, "  modes:  ")
		for _, mode := range []string{"regex", "lexical", "semantic", "hybrid"} {
			if n, ok := snap.ModeCounts[mode]; ok {
				_, _ = fmt.Fprintf(w, " %s=%d", mode, n)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "  latency:")
	for _, bucket := range telemetry.Buckets() {
		_, _ = fmt.Fprintf(w, " %s=%d", bucket, snap.LatencyDistribution[bucket])
	}
	_, _ = fmt.Fprintln(w)

	if len(snap.ZeroResultQueries) > 0 {
		_, _ = fmt.Fprintln(w, "  recent zero-result queries:")
		for _, q := range snap.ZeroResultQueries {
			_, _ = fmt.Fprintf(w, "    %q\n", q)
		}
	}
	return nil
}
