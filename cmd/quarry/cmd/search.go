package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/logging"
	"github.com/quarrysearch/quarry/internal/output"
	"github.com/quarrysearch/quarry/internal/search"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/telemetry"
	"github.com/quarrysearch/quarry/internal/ui"
)

// searchFlags holds every flag of the root search surface.
type searchFlags struct {
	lineNumbers   bool
	ignoreCase    bool
	fixedStrings  bool
	wordRegexp    bool
	filesWith     bool
	filesWithout  bool
	afterContext  int
	beforeContext int
	bothContext   int
	noFilename    bool

	regexMode  bool
	lexMode    bool
	semMode    bool
	hybridMode bool

	topK        int
	threshold   float64
	scores      bool
	excludes    []string
	noIgnore    bool
	jsonOut     bool
	jsonlOut    bool
	rerank      bool
	rerankModel string
	model       string
}

// addSearchFlags registers the search flags on cmd.
func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	fs := cmd.Flags()

	fs.BoolVarP(&f.lineNumbers, "line-number", "n", false, "Show line numbers")
	fs.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Case-insensitive matching")
	fs.BoolVarP(&f.fixedStrings, "fixed-strings", "F", false, "Treat the pattern as literal text")
	fs.BoolVarP(&f.wordRegexp, "word-regexp", "w", false, "Match whole words only")
	fs.BoolVarP(&f.filesWith, "files-with-matches", "l", false, "Print only names of files with matches")
	fs.BoolVarP(&f.filesWithout, "files-without-match", "L", false, "Print only names of files without matches")
	fs.IntVarP(&f.afterContext, "after-context", "A", 0, "Lines of context after each match")
	fs.IntVarP(&f.beforeContext, "before-context", "B", 0, "Lines of context before each match")
	fs.IntVarP(&f.bothContext, "context", "C", 0, "Lines of context around each match")
	fs.BoolVar(&f.noFilename, "no-filename", false, "Suppress file names in output")

	fs.BoolVar(&f.regexMode, "regex", false, "Regex line matching (the default)")
	fs.BoolVar(&f.lexMode, "lex", false, "BM25 lexical ranking")
	fs.BoolVar(&f.semMode, "sem", false, "Semantic ranking over the index")
	fs.BoolVar(&f.hybridMode, "hybrid", false, "Fused lexical + semantic ranking")

	fs.IntVar(&f.topK, "topk", 0, "Result cap for ranked modes (default from config)")
	fs.Float64Var(&f.threshold, "threshold", 0, "Minimum semantic similarity, 0..1 (default from config)")
	fs.BoolVar(&f.scores, "scores", false, "Prefix each result with its score")
	fs.StringArrayVar(&f.excludes, "exclude", nil, "Glob pattern to exclude (repeatable)")
	fs.BoolVar(&f.noIgnore, "no-ignore", false, "Do not honor .gitignore files")
	fs.BoolVar(&f.jsonOut, "json", false, "Emit one JSON document")
	fs.BoolVar(&f.jsonlOut, "jsonl", false, "Emit one JSON object per line")
	fs.BoolVar(&f.rerank, "rerank", false, "Re-score ranked results with a second model")
	fs.StringVar(&f.rerankModel, "rerank-model", "", "Model for --rerank")
	fs.StringVar(&f.model, "model", "", "Embedding model for semantic modes")

	cmd.MarkFlagsMutuallyExclusive("regex", "lex", "sem", "hybrid")
	cmd.MarkFlagsMutuallyExclusive("files-with-matches", "files-without-match")
	cmd.MarkFlagsMutuallyExclusive("json", "jsonl")
}

// mode maps the mode flags to the engine mode. No flag means regex, the
// grep-compatible default.
func (f *searchFlags) mode() search.Mode {
	switch {
	case f.lexMode:
		return search.ModeLexical
	case f.semMode:
		return search.ModeSemantic
	case f.hybridMode:
		return search.ModeHybrid
	default:
		return search.ModeRegex
	}
}

// runSearch is the root RunE. When a --json or --jsonl run fails, the
// error is also written to stdout as a JSON document so scripted
// consumers never have to parse stderr.
func runSearch(ctx context.Context, cmd *cobra.Command, pattern string, paths []string, f *searchFlags) error {
	err := searchAndRender(ctx, cmd, pattern, paths, f)
	if err == nil || errors.Is(err, errNoMatches) {
		return err
	}
	if f.jsonOut || f.jsonlOut {
		if data, jerr := qerrors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
	}
	return err
}

func searchAndRender(ctx context.Context, cmd *cobra.Command, pattern string, paths []string, f *searchFlags) error {
	// File-only logging; stderr stays clean for grep-style use.
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		slog.SetDefault(logger)
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

	opts, err := buildSearchOptions(cmd, cfg, root, pattern, paths, f)
	if err != nil {
		return err
	}

	engineOpts := []search.Option{search.WithLogger(slog.Default())}

	needsEmbedder := opts.Mode == search.ModeSemantic || opts.Mode == search.ModeHybrid
	if needsEmbedder {
		model := f.model
		if model == "" {
			model = cfg.Embedding.Model
		}
		embedder, err := embed.New(ctx, embed.Config{
			Model:     model,
			Host:      cfg.Embedding.OllamaHost,
			BatchSize: cfg.Embedding.BatchSize,
		})
		if err != nil {
			return err
		}
		defer func() { _ = embedder.Close() }()
		engineOpts = append(engineOpts, search.WithEmbedder(embedder))
	}

	if f.rerank {
		host := cfg.Embedding.OllamaHost
		batch := cfg.Embedding.BatchSize
		engineOpts = append(engineOpts, search.WithRerankFactory(
			func(ctx context.Context, model string) (embed.Embedder, error) {
				return embed.New(ctx, embed.Config{Model: model, Host: host, BatchSize: batch})
			}))
	}

	if cfg.Telemetry.Enabled {
		if recorder, err := telemetry.Open(telemetryPath(root, cfg)); err == nil {
			defer func() { _ = recorder.Close() }()
			engineOpts = append(engineOpts, search.WithTelemetry(recorder))
		}
	}

	engine, err := search.New(root, engineOpts...)
	if err != nil {
		return err
	}

	resp, err := engine.Search(ctx, opts)
	if err != nil {
		return err
	}

	if err := writeResponse(cmd, resp, opts, f); err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		return errNoMatches
	}
	return nil
}

// buildSearchOptions merges flags over config defaults into engine
// options. Flags win only when set, so config values survive the zero
// defaults of unset flags.
func buildSearchOptions(cmd *cobra.Command, cfg *config.Config, root, pattern string, paths []string, f *searchFlags) (search.Options, error) {
	relPaths, err := relativePaths(root, paths)
	if err != nil {
		return search.Options{}, err
	}

	before, after := f.beforeContext, f.afterContext
	if f.bothContext > 0 {
		before, after = f.bothContext, f.bothContext
	}
	if before == 0 && after == 0 && cfg.Search.ContextLines > 0 {
		before, after = cfg.Search.ContextLines, cfg.Search.ContextLines
	}

	topK := cfg.Search.TopK
	if cmd.Flags().Changed("topk") {
		topK = f.topK
	}

	threshold := cfg.Search.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = f.threshold
	}
	if threshold < 0 || threshold > 1 {
		return search.Options{}, qerrors.New(qerrors.ErrCodeInvalidOptions,
			fmt.Sprintf("threshold %.2f is outside [0, 1]", threshold), nil)
	}

	return search.Options{
		Pattern:             pattern,
		Paths:               relPaths,
		Mode:                f.mode(),
		FixedString:         f.fixedStrings,
		WordBoundary:        f.wordRegexp,
		IgnoreCase:          f.ignoreCase,
		BeforeContext:       before,
		AfterContext:        after,
		TopK:                topK,
		Threshold:           threshold,
		LexicalWeight:       cfg.Search.LexicalWeight,
		SemanticWeight:      cfg.Search.SemanticWeight,
		RRFConstant:         cfg.Search.RRFConstant,
		Rerank:              f.rerank,
		RerankModel:         f.rerankModel,
		FilesWithMatches:    f.filesWith,
		FilesWithoutMatches: f.filesWithout,
		Excludes:            mergeExcludes(cfg, f.excludes),
		NoIgnore:            f.noIgnore,
		MaxFileSize:         int64(cfg.Index.MaxFileSizeMB) * 1024 * 1024,
	}, nil
}

// relativePaths rewrites CLI path arguments relative to the search
// root. Arguments naming the root itself are dropped; empty means the
// whole tree. Paths escaping the root are rejected.
func relativePaths(root string, paths []string) ([]string, error) {
	var rel []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, qerrors.New(qerrors.ErrCodeInvalidPath,
				fmt.Sprintf("cannot resolve path %q", p), err)
		}
		r, err := filepath.Rel(root, abs)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return nil, qerrors.New(qerrors.ErrCodeInvalidPath,
				fmt.Sprintf("path %q is outside the project root %s", p, root), nil).
				WithSuggestion("run quarry from inside the project, or pass paths under it")
		}
		if r == "." {
			continue
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}

// writeResponse renders the search response per the output flags.
func writeResponse(cmd *cobra.Command, resp *search.Response, opts search.Options, f *searchFlags) error {
	out := cmd.OutOrStdout()
	switch {
	case f.jsonOut:
		return output.WriteJSON(out, resp)
	case f.jsonlOut:
		return output.WriteJSONL(out, resp)
	}

	formatter := &output.TextFormatter{
		Out:         out,
		ShowScores:  f.scores,
		LineNumbers: f.lineNumbers,
		NoFilename:  f.noFilename,
		FilesOnly:   f.filesWith || f.filesWithout,
		Color:       ui.IsTTY(out) && !ui.DetectNoColor(),
	}
	if opts.Mode == search.ModeRegex {
		formatter.Highlight = search.HighlightPattern(opts)
	}
	return formatter.Write(resp)
}

// mergeExcludes joins the configured exclude globs with flag values.
func mergeExcludes(cfg *config.Config, flags []string) []string {
	merged := make([]string, 0, len(cfg.Paths.Exclude)+len(flags))
	merged = append(merged, cfg.Paths.Exclude...)
	merged = append(merged, flags...)
	return merged
}

// telemetryPath resolves the metrics database location for root.
func telemetryPath(root string, cfg *config.Config) string {
	if cfg.Telemetry.Path != "" {
		return cfg.Telemetry.Path
	}
	return filepath.Join(store.DataDir(root), "telemetry.db")
}
