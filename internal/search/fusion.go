package search

import (
	"sort"
	"strconv"
)

// fused carries one chunk's combined ranking evidence.
type fused struct {
	file     string
	ci       int
	rrf      float64
	lexScore float64
	lexRank  int
	semScore float64
	semRank  int
	inBoth   bool
}

// fuse combines the lexical and semantic rankings with weighted
// reciprocal rank fusion:
//
//	score(d) = w_lex/(k + rank_lex(d)) + w_sem/(k + rank_sem(d))
//
// A chunk absent from one list contributes that source at a uniform
// missing rank of max(len(lex), len(sem)) + 1 so presence in a single
// list is penalized consistently. Scores are normalized so the top
// result is 1.0. Ties break by in-both-lists, then file path, then
// start line.
func fuse(c *corpus, lex, sem []scored, k int, wLex, wSem float64) []*fused {
	if len(lex) == 0 && len(sem) == 0 {
		return nil
	}

	byKey := make(map[string]*fused, len(lex)+len(sem))
	keyOf := func(s scored) string {
		return s.file + "\x00" + strconv.Itoa(startLine(c, s))
	}
	get := func(s scored) *fused {
		key := keyOf(s)
		f, ok := byKey[key]
		if !ok {
			f = &fused{file: s.file, ci: s.ci}
			byKey[key] = f
		}
		return f
	}

	for rank, s := range lex {
		f := get(s)
		f.lexScore = s.score
		f.lexRank = rank + 1
		f.rrf += wLex / float64(k+rank+1)
	}
	for rank, s := range sem {
		f := get(s)
		f.semScore = s.score
		f.semRank = rank + 1
		f.rrf += wSem / float64(k+rank+1)
		f.inBoth = f.lexRank > 0
	}

	missing := max(len(lex), len(sem)) + 1
	for _, f := range byKey {
		if f.lexRank == 0 {
			f.rrf += wLex / float64(k+missing)
		}
		if f.semRank == 0 {
			f.rrf += wSem / float64(k+missing)
		}
	}

	results := make([]*fused, 0, len(byKey))
	for _, f := range byKey {
		results = append(results, f)
	}
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.rrf != b.rrf {
			return a.rrf > b.rrf
		}
		if a.inBoth != b.inBoth {
			return a.inBoth
		}
		if a.file != b.file {
			return a.file < b.file
		}
		return c.files[a.file].chunks[a.ci].Span.StartLine < c.files[b.file].chunks[b.ci].Span.StartLine
	})

	if maxScore := results[0].rrf; maxScore > 0 {
		for _, f := range results {
			f.rrf /= maxScore
		}
	}
	return results
}
