package chunk

import "errors"

// Defaults for chunk sizing. MaxTokens/OverlapTokens bound symbol-aligned
// chunks; WindowLines/WindowOverlap bound the fixed windows used for files
// without parseable structure.
const (
	DefaultMaxTokens     = 512
	DefaultOverlapTokens = 64
	DefaultWindowLines   = 128
	DefaultWindowOverlap = 16

	charsPerToken = 4
)

// ErrNotText is returned when content cannot be decoded as text at all.
// Structure-free but decodable content never errors; it falls back to
// window chunking.
var ErrNotText = errors.New("content is not text")

// Span is a 1-based inclusive line range. Spans identify chunks within a
// file: they never overlap, increase strictly, and together cover every
// non-blank line.
type Span struct {
	StartLine int `json:"line_start"`
	EndLine   int `json:"line_end"`
}

// SymbolKind classifies the declaration a chunk was cut from.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindConstant  SymbolKind = "constant"
	KindVariable  SymbolKind = "variable"
)

// Symbol tags a chunk with the named declaration it belongs to. A symbol
// split across several chunks carries the same tag on every piece.
type Symbol struct {
	Kind SymbolKind `json:"kind"`
	Name string     `json:"name"`
}

// Chunk is one retrievable unit of a file. Text may include a short overlap
// from the preceding chunk for embedding continuity; Span always records
// only the lines this chunk owns.
type Chunk struct {
	Text   string  `json:"text"`
	Span   Span    `json:"span"`
	Symbol *Symbol `json:"symbol,omitempty"`
}

// Config bounds chunk sizes. Zero fields take the package defaults.
type Config struct {
	// MaxTokens caps the estimated token count of any chunk.
	MaxTokens int
	// OverlapTokens caps the text carried over between pieces of a split
	// symbol.
	OverlapTokens int
	// WindowLines caps the line count of fixed windows (markdown sections,
	// unparseable files, content between declarations).
	WindowLines int
	// WindowOverlap is the number of lines carried over between adjacent
	// fixed windows.
	WindowOverlap int
}

// DefaultConfig returns the default chunking configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
		WindowLines:   DefaultWindowLines,
		WindowOverlap: DefaultWindowOverlap,
	}
}

func (c Config) sanitized() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.OverlapTokens <= 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	if c.WindowLines <= 0 {
		c.WindowLines = DefaultWindowLines
	}
	if c.WindowOverlap <= 0 {
		c.WindowOverlap = DefaultWindowOverlap
	}
	return c
}

// EstimateTokens approximates the token count of text as ceil(len/4),
// independent of any model's tokenizer.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}
