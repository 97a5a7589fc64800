package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/scanner"
	"github.com/quarrysearch/quarry/internal/telemetry"
)

// Engine answers search calls over one project root. The zero value is
// not usable; construct with New. An Engine is safe for concurrent use
// as long as its embedder is.
type Engine struct {
	root          string
	scanner       *scanner.Scanner
	embedder      embed.Embedder
	model         string
	rerankFactory func(ctx context.Context, model string) (embed.Embedder, error)
	recorder      *telemetry.Recorder
	log           *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder supplies the embedder for semantic and hybrid queries.
// Engines without one still serve regex and lexical searches.
func WithEmbedder(e embed.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// WithTelemetry records per-query timings to the local metrics store.
func WithTelemetry(r *telemetry.Recorder) Option {
	return func(eng *Engine) { eng.recorder = r }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.log = l }
}

// WithRerankFactory overrides how secondary rerank models are opened.
func WithRerankFactory(f func(ctx context.Context, model string) (embed.Embedder, error)) Option {
	return func(eng *Engine) { eng.rerankFactory = f }
}

// New creates an engine rooted at the given project directory.
func New(root string, opts ...Option) (*Engine, error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		root:    root,
		scanner: sc,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.embedder != nil {
		e.model = e.embedder.ModelName()
	}
	if e.rerankFactory == nil {
		e.rerankFactory = func(ctx context.Context, model string) (embed.Embedder, error) {
			return embed.New(ctx, embed.Config{Model: model})
		}
	}
	return e, nil
}

// Search runs one query. The mode set is closed; an unknown mode is an
// options error, never a silent fallback.
func (e *Engine) Search(ctx context.Context, opts Options) (*Response, error) {
	if strings.TrimSpace(opts.Pattern) == "" {
		return nil, qerrors.New(qerrors.ErrCodeInvalidQuery, "empty query", nil)
	}
	opts = opts.sanitized()

	e.log.Debug("search_started",
		"mode", string(opts.Mode),
		"paths", len(opts.Paths))
	start := time.Now()

	var (
		results   []Result
		searched  []string
		bestBelow *Result
		err       error
	)
	switch opts.Mode {
	case ModeRegex:
		results, searched, err = e.searchRegexMode(ctx, opts)
	case ModeLexical:
		results, searched, err = e.searchLexicalMode(ctx, opts)
	case ModeSemantic:
		results, searched, bestBelow, err = e.searchSemanticMode(ctx, opts)
	case ModeHybrid:
		results, searched, err = e.searchHybridMode(ctx, opts)
	default:
		return nil, qerrors.New(qerrors.ErrCodeInvalidOptions,
			fmt.Sprintf("unknown search mode %q", opts.Mode), nil)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Results: results,
		Summary: Summary{
			TotalMatches:     len(results),
			FilesWithMatches: countFiles(results),
			FilesSearched:    len(searched),
			Duration:         time.Since(start),
		},
		BestBelowThreshold: bestBelow,
	}
	applyFileFilters(resp, searched, opts)

	e.log.Debug("search_complete",
		"mode", string(opts.Mode),
		"matches", resp.Summary.TotalMatches,
		"files_searched", resp.Summary.FilesSearched,
		"duration_ms", resp.Summary.Duration.Milliseconds())
	e.record(ctx, opts, resp)

	return resp, nil
}

func (e *Engine) searchRegexMode(ctx context.Context, opts Options) ([]Result, []string, error) {
	return e.searchRegex(ctx, opts)
}

func (e *Engine) searchLexicalMode(ctx context.Context, opts Options) ([]Result, []string, error) {
	c, err := e.loadCorpus(ctx, opts, false)
	if err != nil {
		return nil, nil, err
	}

	ranked := lexicalRank(c, opts.Pattern)
	if len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	normalizeScores(ranked)

	results := make([]Result, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, e.materialize(c, s, s.score))
	}
	return results, c.order, nil
}

func (e *Engine) searchSemanticMode(ctx context.Context, opts Options) ([]Result, []string, *Result, error) {
	c, err := e.loadCorpus(ctx, opts, true)
	if err != nil {
		return nil, nil, nil, err
	}
	if c.embeddedCount() == 0 {
		return nil, nil, nil, qerrors.NotIndexed(e.root)
	}

	ranked, below, err := e.semanticRank(ctx, c, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	results := make([]Result, 0, len(ranked))
	for _, s := range ranked {
		results = append(results, e.materialize(c, s, s.score))
	}
	var bestBelow *Result
	if below != nil {
		r := e.materialize(c, *below, below.score)
		bestBelow = &r
	}
	return results, c.order, bestBelow, nil
}

func (e *Engine) searchHybridMode(ctx context.Context, opts Options) ([]Result, []string, error) {
	c, err := e.loadCorpus(ctx, opts, true)
	if err != nil {
		return nil, nil, err
	}
	if c.embeddedCount() == 0 {
		return nil, nil, qerrors.NotIndexed(e.root)
	}

	// Both rankings run over the same candidate set; the semantic
	// branch blocks on the embedding call, the lexical one is pure CPU.
	var lex, sem []scored
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lex = lexicalRank(c, opts.Pattern)
		if len(lex) > opts.TopK {
			lex = lex[:opts.TopK]
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sem, _, err = e.semanticRank(gctx, c, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	fusedResults := fuse(c, lex, sem, opts.RRFConstant, opts.LexicalWeight, opts.SemanticWeight)
	if len(fusedResults) > opts.TopK {
		fusedResults = fusedResults[:opts.TopK]
	}

	results := make([]Result, 0, len(fusedResults))
	for _, f := range fusedResults {
		r := e.materialize(c, scored{file: f.file, ci: f.ci}, f.rrf)
		r.LexScore = f.lexScore
		r.SemScore = f.semScore
		r.InBoth = f.inBoth
		results = append(results, r)
	}

	if opts.Rerank {
		results = e.rerank(ctx, opts, results)
	}
	return results, c.order, nil
}

// materialize turns a ranked chunk reference into a Result.
func (e *Engine) materialize(c *corpus, s scored, score float64) Result {
	cand := c.files[s.file]
	ch := cand.chunks[s.ci]
	return Result{
		File:     s.file,
		Span:     ch.Span,
		Preview:  ch.Text,
		Score:    score,
		Symbol:   ch.Symbol,
		Language: cand.language,
	}
}

// normalizeScores scales scores so the best is 1.0, keeping order.
func normalizeScores(ranked []scored) {
	if len(ranked) == 0 || ranked[0].score == 0 {
		return
	}
	maxScore := ranked[0].score
	for i := range ranked {
		ranked[i].score /= maxScore
	}
}

func countFiles(results []Result) int {
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		seen[r.File] = struct{}{}
	}
	return len(seen)
}

// applyFileFilters rewrites the result list for the file-listing flags.
// Summary counts always describe the matches themselves, not the
// rewritten list.
func applyFileFilters(resp *Response, searched []string, opts Options) {
	switch {
	case opts.FilesWithMatches:
		seen := make(map[string]struct{}, len(resp.Results))
		var collapsed []Result
		for _, r := range resp.Results {
			if _, dup := seen[r.File]; dup {
				continue
			}
			seen[r.File] = struct{}{}
			collapsed = append(collapsed, Result{File: r.File, Span: r.Span, Score: r.Score, Language: r.Language})
		}
		resp.Results = collapsed

	case opts.FilesWithoutMatches:
		matched := make(map[string]struct{}, len(resp.Results))
		for _, r := range resp.Results {
			matched[r.File] = struct{}{}
		}
		var matchless []Result
		for _, file := range searched {
			if _, ok := matched[file]; !ok {
				matchless = append(matchless, Result{File: file})
			}
		}
		sort.Slice(matchless, func(i, j int) bool { return matchless[i].File < matchless[j].File })
		resp.Results = matchless
	}
}

// record writes one telemetry row; failures are logged, never surfaced.
func (e *Engine) record(ctx context.Context, opts Options, resp *Response) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordSearch(ctx, telemetry.SearchRecord{
		Mode:          string(opts.Mode),
		Query:         opts.Pattern,
		Matches:       resp.Summary.TotalMatches,
		FilesSearched: resp.Summary.FilesSearched,
		Duration:      resp.Summary.Duration,
	})
	if err != nil {
		e.log.Warn("telemetry_record_failed", "error", err)
	}
}
