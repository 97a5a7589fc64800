package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/embed"
)

func rerankFixture() []Result {
	return []Result{
		{File: "a.go", Span: chunk.Span{StartLine: 1, EndLine: 4}, Preview: "alpha", Score: 1.0},
		{File: "b.go", Span: chunk.Span{StartLine: 1, EndLine: 4}, Preview: "beta", Score: 0.7},
	}
}

func TestRerank_SingleResultSkipsModelEntirely(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context, model string) (embed.Embedder, error) {
		calls++
		return nil, errors.New("unreachable")
	}
	e := newTestEngine(t, t.TempDir(), WithRerankFactory(factory))

	in := rerankFixture()[:1]
	out := e.rerank(context.Background(), Options{Pattern: "q"}, in)

	assert.Equal(t, in, out)
	assert.Zero(t, calls)
}

func TestRerank_EmbedErrorKeepsOrder(t *testing.T) {
	factory := func(ctx context.Context, model string) (embed.Embedder, error) {
		return &fakeEmbedder{name: "m", dims: 2, err: errors.New("boom")}, nil
	}
	e := newTestEngine(t, t.TempDir(), WithRerankFactory(factory))

	in := rerankFixture()
	out := e.rerank(context.Background(), Options{Pattern: "q"}, in)

	require.Len(t, out, 2)
	assert.Equal(t, "a.go", out[0].File)
	assert.Equal(t, 1.0, out[0].Score, "scores stay untouched on failure")
}

func TestRerank_ZeroDimensionModelKeepsOrder(t *testing.T) {
	factory := func(ctx context.Context, model string) (embed.Embedder, error) {
		return &fakeEmbedder{name: "none", dims: 0}, nil
	}
	e := newTestEngine(t, t.TempDir(), WithRerankFactory(factory))

	out := e.rerank(context.Background(), Options{Pattern: "q"}, rerankFixture())

	assert.Equal(t, "a.go", out[0].File)
}

func TestRerank_ReordersWithoutChangingSet(t *testing.T) {
	factory := func(ctx context.Context, model string) (embed.Embedder, error) {
		return &fakeEmbedder{name: "m", dims: 2, vectors: map[string][]float32{
			"q":     {0, 1},
			"alpha": {1, 0},
			"beta":  {0, 1},
		}}, nil
	}
	e := newTestEngine(t, t.TempDir(), WithRerankFactory(factory))

	in := rerankFixture()
	out := e.rerank(context.Background(), Options{Pattern: "q"}, in)

	require.Len(t, out, 2)
	assert.Equal(t, "b.go", out[0].File)
	assert.Equal(t, "a.go", out[1].File)
	assert.Equal(t, "a.go", in[0].File, "the input slice is never mutated")
	assert.Equal(t, 1.0, in[0].Score)
}
