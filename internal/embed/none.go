package embed

import "context"

// NoneEmbedder disables semantic indexing. Embed reports no vectors, so
// sidecars built with it carry chunks without embeddings and semantic
// search treats the index as structure-only.
type NoneEmbedder struct{}

// NewNoneEmbedder creates the structure-only embedder.
func NewNoneEmbedder() *NoneEmbedder {
	return &NoneEmbedder{}
}

var _ Embedder = (*NoneEmbedder)(nil)

// Embed reports no vectors.
func (*NoneEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

// EstimateTokens approximates the token count of text. The estimator
// stays usable even when embeddings are disabled.
func (*NoneEmbedder) EstimateTokens(text string) int {
	return EstimateTokens(text)
}

// Dimensions returns zero: no vectors are produced.
func (*NoneEmbedder) Dimensions() int {
	return 0
}

// ModelName returns the registry name of the none model.
func (*NoneEmbedder) ModelName() string {
	return ModelNone
}

// Close is a no-op.
func (*NoneEmbedder) Close() error {
	return nil
}
