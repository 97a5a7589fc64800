package search

import (
	"context"
	"fmt"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// semanticRank embeds the query once and ranks every embedded candidate
// chunk by cosine similarity, exhaustively. Chunks under the threshold
// are dropped, but the single best of them is kept as a diagnostic for
// empty result sets.
func (e *Engine) semanticRank(ctx context.Context, c *corpus, opts Options) ([]scored, *scored, error) {
	queryVec, err := e.embedQuery(ctx, opts.Pattern)
	if err != nil {
		return nil, nil, err
	}

	var ranked []scored
	var bestBelow *scored
	for _, file := range c.order {
		cand := c.files[file]
		if !cand.embedded() {
			continue
		}
		for ci, vec := range cand.vectors {
			if len(vec) != len(queryVec) {
				continue
			}
			s := scored{file: file, ci: ci, score: cosine(queryVec, vec)}
			if s.score < opts.Threshold {
				if bestBelow == nil || s.score > bestBelow.score {
					b := s
					bestBelow = &b
				}
				continue
			}
			ranked = append(ranked, s)
		}
	}

	sortRanked(c, ranked)
	if len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}
	return ranked, bestBelow, nil
}

// embedQuery turns the query into a unit vector through the engine's
// embedder.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if e.embedder == nil || e.embedder.Dimensions() == 0 {
		return nil, qerrors.EmbeddingUnavailable("the configured model provides no vectors", nil).
			WithSuggestion("pick an embedding model with --model or in .quarry.yaml")
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedding the query returned no vector")
	}
	return vectors[0], nil
}

// cosine returns the cosine similarity of two unit vectors, which is
// their dot product. Vectors are normalized at embedding time.
func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
