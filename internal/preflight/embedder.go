package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quarrysearch/quarry/internal/embed"
)

// backendProbeTimeout bounds the health probe so a dead route cannot
// stall the whole report.
const backendProbeTimeout = 5 * time.Second

// CheckModel validates the configured embedding model against the
// registry.
func (c *Checker) CheckModel() CheckResult {
	result := CheckResult{
		Name:     "embedder_model",
		Required: true,
	}

	m, err := embed.Resolve(c.model)
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("unknown model %q", c.model)
		result.Details = "accepted: " + strings.Join(embed.ModelNames(), ", ")
		return result
	}

	result.Status = StatusPass
	switch m.Provider {
	case embed.ProviderNone:
		result.Message = "none (structure-only indexing, no vectors)"
	case embed.ProviderStatic:
		result.Message = fmt.Sprintf("static (offline hash embedder, %d dims)", m.Dimensions)
	default:
		result.Message = fmt.Sprintf("%s (ollama, %d dims)", m.Name, m.Dimensions)
	}
	return result
}

// CheckBackend probes the Ollama server that serves the configured
// model. Builtin providers pass without a probe, and an offline server
// is a warning: indexing degrades to structure-only and search still
// answers lexical queries.
func (c *Checker) CheckBackend(ctx context.Context) CheckResult {
	result := CheckResult{
		Name:     "embedder_backend",
		Required: false,
	}

	m, err := embed.Resolve(c.model)
	if err != nil || m.Provider != embed.ProviderOllama {
		result.Status = StatusPass
		result.Message = "builtin provider, no backend needed"
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, backendProbeTimeout)
	defer cancel()

	client := embed.NewOllamaClient(c.host)
	defer client.Close()

	if err := client.Health(ctx); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("ollama unreachable at %s", client.Host())
		result.Details = "start the server or index with --model static"
		return result
	}

	ok, err := client.HasModel(ctx, m.Tag)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot list installed models: %v", err)
		return result
	}
	if !ok {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s is not installed on %s", m.Name, client.Host())
		result.Details = fmt.Sprintf("run 'quarry models pull %s'", m.Name)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s serving %s", client.Host(), m.Tag)
	return result
}
