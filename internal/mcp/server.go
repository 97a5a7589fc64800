// Package mcp exposes the search engine to MCP clients over stdio.
//
// The server is read only: it offers a search tool, an index_status tool,
// and one resource per indexed file. Indexing stays with the CLI, so a
// connected assistant can query the project but never mutate the index.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/search"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/telemetry"
	"github.com/quarrysearch/quarry/pkg/version"
)

// maxTopK caps the per-call result count regardless of what the client asks for.
const maxTopK = 100

// Searcher is the engine surface the server needs. *search.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, opts search.Options) (*search.Response, error)
}

// Server wires the search engine into an MCP server.
type Server struct {
	mcp      *mcp.Server
	engine   Searcher
	root     string
	model    string
	recorder *telemetry.Recorder
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithModel records the configured embedding model so index_status can
// report it. The server never talks to the embedding backend itself.
func WithModel(name string) Option {
	return func(s *Server) {
		s.model = name
	}
}

// WithTelemetry exposes the recorder's snapshot as a resource.
func WithTelemetry(r *telemetry.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// NewServer creates an MCP server for the project at root backed by engine.
func NewServer(root string, engine Searcher, opts ...Option) (*Server, error) {
	if root == "" {
		return nil, errors.New("project root is required")
	}
	if engine == nil {
		return nil, errors.New("search engine is required")
	}

	s := &Server{
		engine: engine,
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "quarry",
		Version: version.Version,
	}, nil)
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search",
		Description: "Search the project's code and docs. Modes: hybrid (default) fuses " +
			"keyword and semantic rankings, lexical ranks by keyword relevance, semantic " +
			"ranks by meaning, regex matches an exact pattern. Results carry the file, " +
			"line span, preview, and score.",
	}, s.searchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "index_status",
		Description: "Report what the index holds: file and chunk counts, embedding " +
			"coverage, and the models that produced the vectors. Check this before " +
			"relying on semantic search.",
	}, s.indexStatusHandler)
}

func (s *Server) searchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	opts, err := searchOptions(input)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	start := time.Now()
	resp, err := s.engine.Search(ctx, opts)
	if err != nil {
		s.logger.Error("mcp search failed",
			slog.String("mode", string(opts.Mode)),
			slog.Any("error", qerrors.FormatForLog(err)))
		return nil, SearchOutput{}, MapError(err)
	}

	s.logger.Info("mcp search",
		slog.String("mode", string(opts.Mode)),
		slog.Int("results", len(resp.Results)),
		slog.Duration("duration", time.Since(start)))

	return nil, toSearchOutput(resp), nil
}

func (s *Server) indexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (*mcp.CallToolResult, IndexStatusOutput, error) {
	stats, err := store.CollectStats(s.root)
	if err != nil {
		return nil, IndexStatusOutput{}, MapError(err)
	}
	return nil, toIndexStatusOutput(s.root, s.model, stats), nil
}

// searchOptions validates the tool input and converts it to engine options.
func searchOptions(input SearchInput) (search.Options, error) {
	if strings.TrimSpace(input.Query) == "" {
		return search.Options{}, NewInvalidParamsError("query must not be empty")
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return search.Options{}, err
	}

	topk := input.TopK
	switch {
	case topk < 0:
		return search.Options{}, NewInvalidParamsError("topk must not be negative")
	case topk == 0:
		topk = search.DefaultTopK
	case topk > maxTopK:
		topk = maxTopK
	}

	threshold := search.DefaultThreshold
	if input.Threshold != nil {
		threshold = *input.Threshold
		if threshold < 0 || threshold > 1 {
			return search.Options{}, NewInvalidParamsError("threshold must be between 0 and 1")
		}
	}

	for _, p := range input.Paths {
		if !isValidPath(p) {
			return search.Options{}, NewInvalidParamsError(fmt.Sprintf("invalid path %q: paths must be relative to the project root", p))
		}
	}

	return search.Options{
		Pattern:   input.Query,
		Paths:     input.Paths,
		Mode:      mode,
		TopK:      topk,
		Threshold: threshold,
	}, nil
}

func parseMode(name string) (search.Mode, error) {
	switch name {
	case "", "hybrid":
		return search.ModeHybrid, nil
	case "regex":
		return search.ModeRegex, nil
	case "lexical":
		return search.ModeLexical, nil
	case "semantic":
		return search.ModeSemantic, nil
	default:
		return "", NewInvalidParamsError(fmt.Sprintf("unknown mode %q (accepted: regex, lexical, semantic, hybrid)", name))
	}
}

// Serve runs the server over stdio until ctx is canceled or the client
// disconnects. A canceled context is a clean shutdown, not an error.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server starting",
		slog.String("root", s.root),
		slog.String("version", version.Version))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp server stopped", slog.String("error", err.Error()))
		return fmt.Errorf("mcp server: %w", err)
	}

	s.logger.Info("mcp server stopped")
	return nil
}
