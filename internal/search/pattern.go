package search

import (
	"fmt"
	"regexp"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// buildPattern compiles the query into a single regexp, applying the
// literal/word-boundary/case flags. The pattern is compiled exactly once
// per search call.
func buildPattern(opts Options) (*regexp.Regexp, error) {
	pat := opts.Pattern
	if opts.FixedString {
		pat = regexp.QuoteMeta(pat)
	}
	if opts.WordBoundary {
		pat = `\b(?:` + pat + `)\b`
	}
	if opts.IgnoreCase {
		pat = `(?i)` + pat
	}

	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, qerrors.New(qerrors.ErrCodeInvalidPattern,
			fmt.Sprintf("invalid pattern %q", opts.Pattern), err).
			WithSuggestion("use -F to search for the literal text")
	}
	return re, nil
}

// HighlightPattern compiles the same regexp a regex search would match
// with, for marking matches in rendered output. Returns nil when the
// pattern does not compile; callers skip highlighting then.
func HighlightPattern(opts Options) *regexp.Regexp {
	re, err := buildPattern(opts)
	if err != nil {
		return nil
	}
	return re
}
