package embed

import (
	"context"
	"time"
)

// Config selects and tunes the embedding provider. The model name alone
// picks the backend: registry models run through Ollama, the static and
// none pseudo-models are served in process.
type Config struct {
	// Model is a registry model name; empty selects DefaultModel.
	Model string

	// Host is the Ollama endpoint for Ollama-served models.
	Host string

	// BatchSize bounds texts per embedding request.
	BatchSize int

	// Timeout bounds one embedding request.
	Timeout time.Duration

	// CacheSize overrides the query-embedding cache capacity.
	CacheSize int

	// DisableCache turns the query-embedding cache off.
	DisableCache bool

	// SkipVerify skips Ollama reachability checks (tests).
	SkipVerify bool
}

// New resolves cfg.Model and builds the matching provider. Ollama-served
// models are wrapped in the query-embedding cache unless disabled.
func New(ctx context.Context, cfg Config) (Embedder, error) {
	model, err := Resolve(cfg.Model)
	if err != nil {
		return nil, err
	}

	switch model.Provider {
	case ProviderStatic:
		return NewStaticEmbedder(), nil
	case ProviderNone:
		return NewNoneEmbedder(), nil
	}

	embedder, err := NewOllamaEmbedder(ctx, model, OllamaConfig{
		Host:       cfg.Host,
		BatchSize:  cfg.BatchSize,
		Timeout:    cfg.Timeout,
		SkipVerify: cfg.SkipVerify,
	})
	if err != nil {
		return nil, err
	}

	if cfg.DisableCache {
		return embedder, nil
	}
	return NewCachedEmbedder(embedder, cfg.CacheSize), nil
}
