package embed

import (
	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// Provider identifies the backend that serves a model.
type Provider string

const (
	// ProviderOllama serves registry models through an Ollama server.
	ProviderOllama Provider = "ollama"
	// ProviderStatic serves the offline hash embedder.
	ProviderStatic Provider = "static"
	// ProviderNone disables embeddings entirely.
	ProviderNone Provider = "none"
)

// Builtin model names.
const (
	// ModelStatic selects the offline hash embedder.
	ModelStatic = "static"
	// ModelNone indexes structure only; sidecars carry no embeddings.
	ModelNone = "none"
	// DefaultModel is used when no model is configured.
	DefaultModel = "nomic-embed-text-v1.5"
)

// Model is one entry of the model registry.
type Model struct {
	// Name is the model identifier as it appears in configs, sidecar
	// fingerprints, and on the command line.
	Name string

	// Provider is the backend that serves the model.
	Provider Provider

	// Tag is the reference `ollama pull` and /api/embed use for the
	// model. Empty for builtin providers.
	Tag string

	// Dimensions is the fixed vector length the model produces.
	Dimensions int
}

// IsDefault reports whether m is the default model.
func (m Model) IsDefault() bool {
	return m.Name == DefaultModel
}

// registry lists every model quarry accepts. Ollama entries map to an
// official library tag where one exists, otherwise to an hf.co GGUF
// reference that `ollama pull` resolves directly.
var registry = []Model{
	{Name: "BAAI/bge-small-en-v1.5", Provider: ProviderOllama, Tag: "hf.co/CompendiumLabs/bge-small-en-v1.5-gguf", Dimensions: 384},
	{Name: DefaultModel, Provider: ProviderOllama, Tag: "nomic-embed-text", Dimensions: 768},
	{Name: "jina-embeddings-v2-base-code", Provider: ProviderOllama, Tag: "hf.co/tensorblock/jina-embeddings-v2-base-code-GGUF", Dimensions: 768},
	{Name: "sentence-transformers/all-MiniLM-L6-v2", Provider: ProviderOllama, Tag: "all-minilm", Dimensions: 384},
	{Name: "BAAI/bge-base-en-v1.5", Provider: ProviderOllama, Tag: "hf.co/CompendiumLabs/bge-base-en-v1.5-gguf", Dimensions: 768},
	{Name: "BAAI/bge-large-en-v1.5", Provider: ProviderOllama, Tag: "bge-large", Dimensions: 1024},
	{Name: ModelStatic, Provider: ProviderStatic, Dimensions: StaticDimensions},
	{Name: ModelNone, Provider: ProviderNone, Dimensions: 0},
}

// Resolve maps a model name to its registry entry. The empty name
// selects the default; unknown names report the accepted list.
func Resolve(name string) (Model, error) {
	if name == "" {
		name = DefaultModel
	}
	for _, m := range registry {
		if m.Name == name {
			return m, nil
		}
	}
	return Model{}, qerrors.ModelNotFound(name, ModelNames())
}

// Models returns the registry in listing order.
func Models() []Model {
	out := make([]Model, len(registry))
	copy(out, registry)
	return out
}

// ModelNames returns the accepted model names in listing order.
func ModelNames() []string {
	names := make([]string, len(registry))
	for i, m := range registry {
		names[i] = m.Name
	}
	return names
}
