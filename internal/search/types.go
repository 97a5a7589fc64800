// Package search answers queries over a project tree in four modes:
// exact/regex line matching, BM25 lexical ranking, embedding-based
// semantic ranking, and a hybrid of the last two fused by weighted
// reciprocal rank. Scored modes draw candidates from fresh sidecars;
// lexical additionally chunks unindexed files on the fly, so it works
// without an index at all.
package search

import (
	"time"

	"github.com/quarrysearch/quarry/internal/chunk"
)

// Mode selects the search strategy.
type Mode string

const (
	// ModeRegex matches raw file lines against a compiled pattern.
	ModeRegex Mode = "regex"

	// ModeLexical ranks chunks by BM25 over code-aware tokens.
	ModeLexical Mode = "lexical"

	// ModeSemantic ranks chunks by embedding similarity.
	ModeSemantic Mode = "semantic"

	// ModeHybrid fuses lexical and semantic rankings.
	ModeHybrid Mode = "hybrid"
)

// Scoring defaults. Weights and the RRF constant follow the standard
// hybrid-retrieval settings; the similarity threshold keeps weak
// neighbors out of semantic results.
const (
	DefaultTopK      = 10
	DefaultThreshold = 0.6

	DefaultLexicalWeight  = 0.35
	DefaultSemanticWeight = 0.65
	DefaultRRFConstant    = 60

	bm25K1 = 1.2
	bm25B  = 0.75
)

// Options configures one search call. The zero value is not usable;
// Pattern and Mode are required.
type Options struct {
	// Pattern is the query: a regex (or literal with FixedString) for
	// ModeRegex, free text for the scored modes.
	Pattern string

	// Paths restricts the search to these root-relative files or
	// directories. Empty searches the whole root.
	Paths []string

	// Mode selects the strategy.
	Mode Mode

	// FixedString treats Pattern as a literal (regex metas escaped).
	FixedString bool

	// WordBoundary wraps the pattern in \b anchors.
	WordBoundary bool

	// IgnoreCase makes regex matching case-insensitive.
	IgnoreCase bool

	// BeforeContext and AfterContext fold that many neighbor lines into
	// each regex result's preview.
	BeforeContext int
	AfterContext  int

	// TopK caps results in the scored modes; 0 selects DefaultTopK.
	TopK int

	// Threshold is the minimum cosine similarity for semantic results.
	// Zero is a valid threshold (accept everything); callers pass the
	// configured value explicitly.
	Threshold float64

	// LexicalWeight and SemanticWeight steer hybrid fusion; both zero
	// selects the defaults.
	LexicalWeight  float64
	SemanticWeight float64

	// RRFConstant is the fusion smoothing constant k; 0 selects
	// DefaultRRFConstant.
	RRFConstant int

	// Rerank re-scores the fused top results with a secondary model.
	Rerank bool

	// RerankModel names the secondary model; empty selects the default
	// registry model.
	RerankModel string

	// FilesWithMatches collapses results to one per matching file.
	FilesWithMatches bool

	// FilesWithoutMatches inverts the report: one result per searched
	// file with no match.
	FilesWithoutMatches bool

	// Excludes adds glob patterns to the scan exclusions.
	Excludes []string

	// NoIgnore disables .gitignore handling during discovery.
	NoIgnore bool

	// MaxFileSize caps searched files in bytes; 0 keeps the scanner
	// default.
	MaxFileSize int64
}

// sanitized fills defaulted fields.
func (o Options) sanitized() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	if o.LexicalWeight == 0 && o.SemanticWeight == 0 {
		o.LexicalWeight = DefaultLexicalWeight
		o.SemanticWeight = DefaultSemanticWeight
	}
	if o.RRFConstant <= 0 {
		o.RRFConstant = DefaultRRFConstant
	}
	return o
}

// Result is one match. Regex results span a single line with score 1;
// scored results span a chunk and carry the mode's scores.
type Result struct {
	// File is the matched file, relative to the search root.
	File string `json:"file"`

	// Span is the matched line range, 1-based inclusive.
	Span chunk.Span `json:"span"`

	// Preview is the matched text: the line (with any context folded
	// in) for regex, the chunk text for scored modes.
	Preview string `json:"preview"`

	// Score is the final ranking score in [0, 1].
	Score float64 `json:"score"`

	// LexScore and SemScore carry the per-source scores in hybrid mode.
	LexScore float64 `json:"lex_score,omitempty"`
	SemScore float64 `json:"sem_score,omitempty"`

	// InBoth marks hybrid results present in both source rankings.
	InBoth bool `json:"in_both,omitempty"`

	// Symbol is the enclosing declaration, when chunking found one.
	Symbol *chunk.Symbol `json:"symbol,omitempty"`

	// Language is the file's detected language.
	Language string `json:"language,omitempty"`
}

// Summary aggregates one search call across all target paths.
type Summary struct {
	TotalMatches     int           `json:"total_matches"`
	FilesWithMatches int           `json:"files_with_matches"`
	FilesSearched    int           `json:"files_searched"`
	Duration         time.Duration `json:"duration"`
}

// Response is the full answer to one search call.
type Response struct {
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`

	// BestBelowThreshold is the strongest semantic candidate that fell
	// under the threshold, kept as a diagnostic for empty result sets.
	BestBelowThreshold *Result `json:"best_below_threshold,omitempty"`
}
