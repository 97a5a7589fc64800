package mcp

import (
	"time"

	"github.com/quarrysearch/quarry/internal/embed"
	"github.com/quarrysearch/quarry/internal/search"
	"github.com/quarrysearch/quarry/internal/store"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"the search query: free text for scored modes, a pattern for regex mode"`
	Mode      string   `json:"mode,omitempty" jsonschema:"search mode: regex, lexical, semantic, or hybrid (default hybrid)"`
	TopK      int      `json:"topk,omitempty" jsonschema:"maximum number of results (default 10, capped at 100)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity for semantic results, between 0 and 1 (default 0.6)"`
	Paths     []string `json:"paths,omitempty" jsonschema:"restrict the search to these root-relative files or directories"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResult `json:"results" jsonschema:"ranked results, best first"`
	Summary SearchSummary  `json:"summary" jsonschema:"counts for the whole call"`
}

// SearchResult is one ranked match.
type SearchResult struct {
	File       string  `json:"file" jsonschema:"path relative to the project root"`
	StartLine  int     `json:"start_line" jsonschema:"first line of the match, 1-based"`
	EndLine    int     `json:"end_line" jsonschema:"last line of the match, inclusive"`
	Preview    string  `json:"preview" jsonschema:"matched text"`
	Score      float64 `json:"score" jsonschema:"relevance score between 0 and 1"`
	Language   string  `json:"language,omitempty" jsonschema:"detected language of the file"`
	Symbol     string  `json:"symbol,omitempty" jsonschema:"enclosing declaration name"`
	SymbolKind string  `json:"symbol_kind,omitempty" jsonschema:"declaration kind such as function or class"`
	InBoth     bool    `json:"in_both,omitempty" jsonschema:"true when a hybrid result ranked in both the lexical and semantic lists"`
}

// SearchSummary reports per-call counts.
type SearchSummary struct {
	TotalMatches     int   `json:"total_matches" jsonschema:"number of results returned"`
	FilesWithMatches int   `json:"files_with_matches" jsonschema:"distinct files in the results"`
	FilesSearched    int   `json:"files_searched" jsonschema:"files considered by the search"`
	DurationMs       int64 `json:"duration_ms" jsonschema:"wall-clock time in milliseconds"`
}

// IndexStatusInput is the input schema for the index_status tool.
// The tool takes no arguments.
type IndexStatusInput struct{}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Root          string         `json:"root" jsonschema:"absolute project root the server searches"`
	Indexed       bool           `json:"indexed" jsonschema:"false when no index exists yet"`
	Files         int            `json:"files" jsonschema:"indexed files"`
	Chunks        int            `json:"chunks" jsonschema:"indexed chunks across all files"`
	EmbeddedFiles int            `json:"embedded_files" jsonschema:"files that carry embedding vectors"`
	SizeBytes     int64          `json:"size_bytes" jsonschema:"on-disk size of the index"`
	LastIndexed   string         `json:"last_indexed,omitempty" jsonschema:"RFC3339 time of the newest index entry"`
	Models        map[string]int `json:"models,omitempty" jsonschema:"embedding model names with the number of files each produced"`
	Orphans       int            `json:"orphans,omitempty" jsonschema:"index entries whose source file no longer exists"`
	Unreadable    int            `json:"unreadable,omitempty" jsonschema:"index entries that could not be parsed"`
	Model         ModelStatus    `json:"model" jsonschema:"the embedding model the server is configured with"`
}

// ModelStatus describes the configured embedding model. It reflects
// configuration only; the server never probes the backend.
type ModelStatus struct {
	Name       string `json:"name" jsonschema:"model name"`
	Provider   string `json:"provider" jsonschema:"model provider: ollama, static, or none"`
	Dimensions int    `json:"dimensions" jsonschema:"embedding vector width"`
}

func toSearchOutput(resp *search.Response) SearchOutput {
	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		sr := SearchResult{
			File:      r.File,
			StartLine: r.Span.StartLine,
			EndLine:   r.Span.EndLine,
			Preview:   r.Preview,
			Score:     r.Score,
			Language:  r.Language,
			InBoth:    r.InBoth,
		}
		if r.Symbol != nil {
			sr.Symbol = r.Symbol.Name
			sr.SymbolKind = string(r.Symbol.Kind)
		}
		results = append(results, sr)
	}

	return SearchOutput{
		Results: results,
		Summary: SearchSummary{
			TotalMatches:     resp.Summary.TotalMatches,
			FilesWithMatches: resp.Summary.FilesWithMatches,
			FilesSearched:    resp.Summary.FilesSearched,
			DurationMs:       resp.Summary.Duration.Milliseconds(),
		},
	}
}

func toIndexStatusOutput(root, model string, stats *store.Stats) IndexStatusOutput {
	out := IndexStatusOutput{
		Root:          root,
		Indexed:       !stats.Empty(),
		Files:         stats.TotalFiles,
		Chunks:        stats.TotalChunks,
		EmbeddedFiles: stats.EmbeddedFiles,
		SizeBytes:     stats.SizeBytes,
		Models:        stats.Models,
		Orphans:       len(stats.Orphans),
		Unreadable:    stats.Unreadable,
	}
	if !stats.LastModified.IsZero() {
		out.LastIndexed = stats.LastModified.UTC().Format(time.RFC3339)
	}
	if m, err := embed.Resolve(model); err == nil {
		out.Model = ModelStatus{
			Name:       m.Name,
			Provider:   string(m.Provider),
			Dimensions: m.Dimensions,
		}
	}
	return out
}
