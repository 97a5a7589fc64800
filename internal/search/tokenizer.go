package search

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenPattern finds identifier-like runs; punctuation splits naturally.
var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// codeStopWords are tokens too common in source text to carry signal:
// language keywords plus a handful of English filler that appears in
// queries and comments alike.
var codeStopWords = map[string]struct{}{
	"func": {}, "function": {}, "def": {}, "fn": {}, "class": {},
	"return": {}, "import": {}, "from": {}, "package": {}, "pub": {},
	"const": {}, "var": {}, "let": {}, "static": {}, "final": {},
	"int": {}, "string": {}, "str": {}, "bool": {}, "float": {},
	"void": {}, "nil": {}, "null": {}, "none": {}, "true": {}, "false": {},
	"this": {}, "self": {}, "new": {}, "if": {}, "else": {}, "for": {},
	"while": {}, "the": {}, "a": {}, "an": {}, "to": {}, "of": {},
	"in": {}, "is": {}, "and": {}, "or": {}, "it": {}, "with": {},
}

// Tokenize splits text into lowercased search tokens: identifier runs
// are split on camelCase and snake_case boundaries, stop words and
// single characters are dropped.
func Tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenPattern.FindAllString(text, -1) {
		for _, part := range SplitCodeToken(word) {
			lower := strings.ToLower(part)
			if len(lower) < 2 {
				continue
			}
			if _, stop := codeStopWords[lower]; stop {
				continue
			}
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// SplitCodeToken splits snake_case first, then camelCase within each
// part.
func SplitCodeToken(token string) []string {
	if !strings.Contains(token, "_") {
		return SplitCamelCase(token)
	}
	var result []string
	for _, part := range strings.Split(token, "_") {
		if part != "" {
			result = append(result, SplitCamelCase(part)...)
		}
	}
	return result
}

// SplitCamelCase splits camelCase and PascalCase identifiers, keeping
// acronym runs together: "parseHTTPRequest" becomes
// ["parse", "HTTP", "Request"].
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	var current strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}
