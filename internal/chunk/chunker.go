package chunk

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// Chunker splits file content into retrievable chunks. Chunks align to
// declarations when a grammar is available and fall back to fixed line
// windows otherwise. Output is deterministic for identical (content, config).
//
// A Chunker owns one parser and is not safe for concurrent use; create one
// per worker.
type Chunker struct {
	cfg    Config
	parser *sitter.Parser
}

// New creates a chunker. Zero config fields take the package defaults.
func New(cfg Config) *Chunker {
	return &Chunker{
		cfg:    cfg.sanitized(),
		parser: sitter.NewParser(),
	}
}

// Close releases parser resources.
func (c *Chunker) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// segment is a run of consecutive lines that chunks are cut from. Segments
// partition the file's lines; symbol is nil for content between
// declarations and for files without structure.
type segment struct {
	start  int // 1-based first line
	lines  []string
	symbol *Symbol
}

// Chunk splits content into chunks. It errors only when the content cannot
// be decoded as text; missing structure degrades to window chunking.
func (c *Chunker) Chunk(ctx context.Context, path string, content []byte) ([]Chunk, error) {
	if bytes.IndexByte(content, 0) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotText, path)
	}

	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return nil, nil
	}

	var segs []segment
	if isMarkdownPath(path) {
		segs = markdownSegments(lines)
	} else if spec, ok := languageForPath(path); ok {
		segs = c.structuralSegments(ctx, []byte(text), lines, spec)
	}
	if segs == nil {
		segs = []segment{{start: 1, lines: lines}}
	}

	return c.emit(segs), nil
}

// structuralSegments partitions the file around its top-level declarations.
// Returns nil when parsing fails, which sends the caller to the window
// fallback.
func (c *Chunker) structuralSegments(ctx context.Context, source []byte, lines []string, spec *languageSpec) []segment {
	c.parser.SetLanguage(spec.grammar)
	tree, err := c.parser.ParseCtx(ctx, nil, source)
	if err != nil || tree == nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	var segs []segment
	cursor := 1 // next uncovered line

	// Track the run of comment lines directly above the cursor so doc
	// comments ride with their declaration.
	commentStart, commentEnd := 0, 0

	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		if n == nil {
			continue
		}

		if n.Type() == "comment" {
			s, e := nodeLines(n)
			if commentStart == 0 || s > commentEnd+1 {
				commentStart = s
			}
			commentEnd = e
			continue
		}

		decl, kind, isSymbol := spec.resolve(n)
		if !isSymbol {
			commentStart, commentEnd = 0, 0
			continue
		}

		start, end := nodeLines(n)
		if commentStart > 0 && commentEnd+1 == start {
			start = commentStart
		}
		commentStart, commentEnd = 0, 0

		if start < cursor {
			start = cursor
		}
		if start > end {
			continue // already covered by the previous declaration
		}

		if start > cursor {
			segs = append(segs, segment{start: cursor, lines: lines[cursor-1 : start-1]})
		}
		if end > len(lines) {
			end = len(lines)
		}
		segs = append(segs, segment{
			start:  start,
			lines:  lines[start-1 : end],
			symbol: spec.symbolFor(decl, kind, source),
		})
		cursor = end + 1
	}

	if cursor <= len(lines) {
		segs = append(segs, segment{start: cursor, lines: lines[cursor-1:]})
	}

	return segs
}

// emit turns segments into chunks, splitting oversized segments at line
// boundaries. Split pieces keep the segment's symbol tag; continuation
// pieces carry a short text overlap from their predecessor while spans stay
// disjoint.
func (c *Chunker) emit(segs []segment) []Chunk {
	var chunks []Chunk
	for _, seg := range segs {
		seg, ok := trimBlankEdges(seg)
		if !ok {
			continue
		}

		maxLines := 0
		if seg.symbol == nil {
			maxLines = c.cfg.WindowLines
		}
		pieces := splitByBudget(seg.lines, c.cfg.MaxTokens, maxLines)

		for i, p := range pieces {
			text := strings.Join(p.lines, "\n")
			if i > 0 {
				var tail []string
				if seg.symbol != nil {
					tail = overlapTail(pieces[i-1].lines, 0, c.cfg.OverlapTokens)
				} else {
					tail = overlapTail(pieces[i-1].lines, c.cfg.WindowOverlap, 0)
				}
				if len(tail) > 0 {
					text = strings.Join(tail, "\n") + "\n" + text
				}
			}
			chunks = append(chunks, Chunk{
				Text: text,
				Span: Span{
					StartLine: seg.start + p.offset,
					EndLine:   seg.start + p.offset + len(p.lines) - 1,
				},
				Symbol: seg.symbol,
			})
		}
	}
	return chunks
}

// piece is a cut of a segment's lines; offset is relative to the segment.
type piece struct {
	offset int
	lines  []string
}

// splitByBudget cuts lines into consecutive pieces, each within the token
// budget and, when maxLines is positive, the line cap. A single line over
// budget becomes its own piece.
func splitByBudget(lines []string, maxTokens, maxLines int) []piece {
	budget := maxTokens * charsPerToken
	var pieces []piece
	start, chars := 0, 0
	for i, ln := range lines {
		lineChars := len(ln) + 1
		if i > start && (chars+lineChars > budget || (maxLines > 0 && i-start >= maxLines)) {
			pieces = append(pieces, piece{offset: start, lines: lines[start:i]})
			start, chars = i, 0
		}
		chars += lineChars
	}
	return append(pieces, piece{offset: start, lines: lines[start:]})
}

// overlapTail returns the suffix of lines that fits the overlap budget.
// Either cap may be zero to disable it.
func overlapTail(lines []string, maxLines, maxTokens int) []string {
	if maxLines <= 0 && maxTokens <= 0 {
		return nil
	}
	chars, count := 0, 0
	for i := len(lines) - 1; i >= 0; i-- {
		chars += len(lines[i]) + 1
		if maxTokens > 0 && chars > maxTokens*charsPerToken {
			break
		}
		count++
		if maxLines > 0 && count >= maxLines {
			break
		}
	}
	if count == 0 || count == len(lines) {
		// A full copy of the predecessor adds no information
		return nil
	}
	return lines[len(lines)-count:]
}

// trimBlankEdges shrinks a segment to its non-blank core. Returns false for
// all-blank segments.
func trimBlankEdges(seg segment) (segment, bool) {
	lo, hi := 0, len(seg.lines)
	for lo < hi && strings.TrimSpace(seg.lines[lo]) == "" {
		lo++
	}
	for hi > lo && strings.TrimSpace(seg.lines[hi-1]) == "" {
		hi--
	}
	if lo == hi {
		return segment{}, false
	}
	return segment{start: seg.start + lo, lines: seg.lines[lo:hi], symbol: seg.symbol}, true
}
