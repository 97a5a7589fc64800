package search

import (
	"context"
	"sort"
)

// rerank re-scores fused results with a secondary embedding model and
// re-sorts them. The result set never changes: reranking only reorders
// what fusion selected. Any failure, from an unreachable model to a
// dimension mismatch, leaves the fused order untouched.
func (e *Engine) rerank(ctx context.Context, opts Options, results []Result) []Result {
	if len(results) < 2 {
		return results
	}

	secondary, err := e.rerankFactory(ctx, opts.RerankModel)
	if err != nil {
		e.log.Warn("rerank_model_unavailable", "model", opts.RerankModel, "error", err)
		return results
	}
	defer secondary.Close()
	if secondary.Dimensions() == 0 {
		e.log.Warn("rerank_model_unavailable", "model", secondary.ModelName())
		return results
	}

	// One batch: the query first, then every preview in result order.
	texts := make([]string, 0, len(results)+1)
	texts = append(texts, opts.Pattern)
	for _, r := range results {
		texts = append(texts, r.Preview)
	}

	vectors, err := secondary.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		e.log.Warn("rerank_failed", "model", secondary.ModelName(), "error", err)
		return results
	}

	queryVec := vectors[0]
	reranked := make([]Result, len(results))
	copy(reranked, results)
	for i := range reranked {
		vec := vectors[i+1]
		if len(vec) != len(queryVec) {
			e.log.Warn("rerank_failed", "model", secondary.ModelName(),
				"reason", "dimension mismatch")
			return results
		}
		reranked[i].Score = cosine(queryVec, vec)
	}

	sort.Slice(reranked, func(i, j int) bool {
		a, b := reranked[i], reranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.InBoth != b.InBoth {
			return a.InBoth
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Span.StartLine < b.Span.StartLine
	})
	return reranked
}
