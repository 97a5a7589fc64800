// Package embed turns chunk text into fixed-length vectors for semantic
// search. The model name alone selects the backend: registry models are
// served through a local Ollama server, while the builtin pseudo-models
// static (offline hash embedder) and none (structure-only indexing) run
// in process.
package embed

import (
	"context"
	"errors"
	"math"
	"time"
)

const (
	// DefaultBatchSize is the number of texts sent per embedding request.
	DefaultBatchSize = 32

	// MaxBatchSize caps a single request to bound memory on both ends.
	MaxBatchSize = 256

	// DefaultTimeout bounds one embedding request. The first call pays
	// for a cold model load; Ollama keeps the model warm afterwards.
	DefaultTimeout = 120 * time.Second

	// DefaultPullTimeout bounds a model download.
	DefaultPullTimeout = 10 * time.Minute

	// charsPerToken is the chars-per-token approximation used by every
	// provider. Real tokenizers average close to four characters per
	// token on code and prose alike.
	charsPerToken = 4
)

var errClosed = errors.New("embedder is closed")

// Embedder converts batches of text into fixed-length vectors.
// Implementations are safe for concurrent use.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EstimateTokens approximates the token count of text without a
	// model round trip. It is stable across runs; chunk sizing and
	// offline inspection depend on it.
	EstimateTokens(text string) int

	// Dimensions returns the vector length this embedder produces.
	Dimensions() int

	// ModelName returns the registry name of the underlying model.
	ModelName() string

	// Close releases held resources. Safe to call more than once.
	Close() error
}

// EstimateTokens approximates the token count of text as
// ceil(len(text)/4), without loading any model.
func EstimateTokens(text string) int {
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// normalizeVector scales v to unit length. Zero vectors pass through
// unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
