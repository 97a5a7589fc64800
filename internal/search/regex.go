package search

import (
	"context"
	"os"
	"strings"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/scanner"
)

// searchRegex streams raw lines of every target file through one
// compiled pattern. Each matching line yields one result with score 1;
// requested context lines are folded into the preview and never become
// results of their own.
func (e *Engine) searchRegex(ctx context.Context, opts Options) ([]Result, []string, error) {
	re, err := buildPattern(opts)
	if err != nil {
		return nil, nil, err
	}

	var results []Result
	var searched []string
	err = e.scanTargets(ctx, opts, func(file *scanner.FileInfo) error {
		content, err := os.ReadFile(file.AbsPath)
		if err != nil {
			// A file that vanished between discovery and read is not a
			// search failure.
			return nil
		}
		searched = append(searched, file.Path)

		lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")
		for i, line := range lines {
			if !re.MatchString(line) {
				continue
			}
			lineNo := i + 1
			results = append(results, Result{
				File:     file.Path,
				Span:     chunk.Span{StartLine: lineNo, EndLine: lineNo},
				Preview:  contextPreview(lines, i, opts.BeforeContext, opts.AfterContext),
				Score:    1.0,
				Language: file.Language,
			})
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, searched, err
	}
	return results, searched, nil
}

// contextPreview returns the matched line with up to before/after
// neighbor lines joined around it.
func contextPreview(lines []string, idx, before, after int) string {
	if before <= 0 && after <= 0 {
		return lines[idx]
	}
	start := max(idx-before, 0)
	end := min(idx+after+1, len(lines))
	return strings.Join(lines[start:end], "\n")
}
