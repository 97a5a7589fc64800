package search

import (
	"math"
	"sort"
)

// scored ranks one chunk of one candidate file.
type scored struct {
	file  string
	ci    int
	score float64
}

// lexicalRank scores every candidate chunk against the query with BM25.
// Corpus statistics (document frequency, average length) are computed
// over the candidate set itself, so ranking adapts to whatever subtree
// is being searched. Only chunks with a positive score rank; ties break
// by file path, then start line.
func lexicalRank(c *corpus, query string) []scored {
	queryTokens := dedupe(Tokenize(query))
	if len(queryTokens) == 0 {
		return nil
	}

	type doc struct {
		file   string
		ci     int
		counts map[string]int
		length int
	}

	var docs []doc
	df := make(map[string]int)
	totalLen := 0

	for _, file := range c.order {
		cand := c.files[file]
		for ci := range cand.chunks {
			tokens := Tokenize(cand.chunks[ci].Text)
			counts := make(map[string]int, len(tokens))
			for _, t := range tokens {
				counts[t]++
			}
			for t := range counts {
				df[t]++
			}
			docs = append(docs, doc{file: file, ci: ci, counts: counts, length: len(tokens)})
			totalLen += len(tokens)
		}
	}
	if len(docs) == 0 {
		return nil
	}

	n := float64(len(docs))
	avgLen := float64(totalLen) / n

	var ranked []scored
	for _, d := range docs {
		score := 0.0
		for _, t := range queryTokens {
			tf := float64(d.counts[t])
			if tf == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[t])+0.5)/(float64(df[t])+0.5))
			norm := 1 - bm25B + bm25B*float64(d.length)/avgLen
			score += idf * tf * (bm25K1 + 1) / (tf + bm25K1*norm)
		}
		if score > 0 {
			ranked = append(ranked, scored{file: d.file, ci: d.ci, score: score})
		}
	}

	sortRanked(c, ranked)
	return ranked
}

// sortRanked orders by score descending, then file path, then start
// line, which keeps rankings stable across runs.
func sortRanked(c *corpus, ranked []scored) {
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.file != b.file {
			return a.file < b.file
		}
		return startLine(c, a) < startLine(c, b)
	})
}

func startLine(c *corpus, s scored) int {
	return c.files[s.file].chunks[s.ci].Span.StartLine
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
