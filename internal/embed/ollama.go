package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// DefaultOllamaHost is the default Ollama API endpoint.
const DefaultOllamaHost = "http://localhost:11434"

const ollamaPoolSize = 4

// OllamaClient is a minimal client for the Ollama HTTP API, covering
// the three endpoints quarry uses: /api/tags to discover installed
// models, /api/embed to compute embeddings, and /api/pull to download
// a model.
type OllamaClient struct {
	host      string
	client    *http.Client
	transport *http.Transport
}

// NewOllamaClient returns a client for the given endpoint. An empty
// host selects DefaultOllamaHost.
func NewOllamaClient(host string) *OllamaClient {
	if host == "" {
		host = DefaultOllamaHost
	}
	transport := &http.Transport{
		MaxIdleConns:        ollamaPoolSize,
		MaxIdleConnsPerHost: ollamaPoolSize,
		MaxConnsPerHost:     ollamaPoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}
	// No client-level timeout: every call runs under a per-request
	// context deadline instead, so a slow pull is not cut off by the
	// embed timeout.
	return &OllamaClient{
		host:      strings.TrimRight(host, "/"),
		client:    &http.Client{Transport: transport},
		transport: transport,
	}
}

// Host returns the endpoint this client talks to.
func (c *OllamaClient) Host() string {
	return c.host
}

// Close releases idle connections.
func (c *OllamaClient) Close() {
	c.transport.CloseIdleConnections()
}

// OllamaModelInfo describes one model installed on the server.
type OllamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

type ollamaTagsResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// ollamaEmbedRequest is the /api/embed request body. Input is a string
// for a single text or a []string for a batch.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// Health reports whether the server answers.
func (c *OllamaClient) Health(ctx context.Context) error {
	_, err := c.Tags(ctx)
	return err
}

// Tags lists the models installed on the server.
func (c *OllamaClient) Tags(ctx context.Context) ([]OllamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, qerrors.NetworkError("list models", true, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, qerrors.NetworkError("list models", false, httpStatusError(resp))
	}

	var result ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	return result.Models, nil
}

// HasModel reports whether tag is installed, matching with and without
// the ":latest" suffix the server appends.
func (c *OllamaClient) HasModel(ctx context.Context, tag string) (bool, error) {
	models, err := c.Tags(ctx)
	if err != nil {
		return false, err
	}

	want := strings.ToLower(tag)
	wantBase := strings.SplitN(want, ":", 2)[0]
	for _, m := range models {
		have := strings.ToLower(m.Name)
		if have == want || strings.SplitN(have, ":", 2)[0] == wantBase {
			return true, nil
		}
	}
	return false, nil
}

// Embed computes embeddings for texts under tag in a single request and
// scales each vector to unit length. The request runs in a goroutine so
// cancellation unblocks the caller immediately instead of waiting out
// the HTTP exchange.
func (c *OllamaClient) Embed(ctx context.Context, tag string, texts []string) ([][]float32, error) {
	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: tag, Input: input})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	type result struct {
		vectors [][]float32
		err     error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := c.client.Do(req)
		if err != nil {
			resultCh <- result{nil, qerrors.NetworkError("embed", true, err)}
			return
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			resultCh <- result{nil, httpStatusError(resp)}
			return
		}

		var apiResult ollamaEmbedResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiResult); err != nil {
			resultCh <- result{nil, fmt.Errorf("decode embed response: %w", err)}
			return
		}

		vectors := make([][]float32, len(apiResult.Embeddings))
		for i, emb := range apiResult.Embeddings {
			vec := make([]float32, len(emb))
			for j, v := range emb {
				vec[j] = float32(v)
			}
			vectors[i] = normalizeVector(vec)
		}
		resultCh <- result{vectors, nil}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		return r.vectors, r.err
	}
}

// httpStatusError reads the response body into a status error.
func httpStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the server endpoint; empty selects DefaultOllamaHost.
	Host string

	// BatchSize bounds texts per request; 0 selects DefaultBatchSize.
	BatchSize int

	// Timeout bounds one embedding request; 0 selects DefaultTimeout.
	Timeout time.Duration

	// SkipVerify skips the reachability and installed-model checks.
	SkipVerify bool
}

// OllamaEmbedder computes embeddings through an Ollama server.
type OllamaEmbedder struct {
	client  *OllamaClient
	model   Model
	batch   int
	timeout time.Duration
	retry   qerrors.RetryPolicy

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder verifies the server is reachable and the model's
// tag is installed, then returns an embedder bound to that model.
func NewOllamaEmbedder(ctx context.Context, model Model, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if model.Provider != ProviderOllama {
		return nil, fmt.Errorf("model %s is not served by ollama", model.Name)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > MaxBatchSize {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := NewOllamaClient(cfg.Host)
	e := &OllamaEmbedder{
		client:  client,
		model:   model,
		batch:   cfg.BatchSize,
		timeout: cfg.Timeout,
		retry:   qerrors.DefaultRetryPolicy(),
	}

	if !cfg.SkipVerify {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		installed, err := client.HasModel(checkCtx, model.Tag)
		if err != nil {
			client.Close()
			return nil, err
		}
		if !installed {
			client.Close()
			return nil, qerrors.New(qerrors.ErrCodeModelPull,
				fmt.Sprintf("model %s (%s) is not installed on %s", model.Name, model.Tag, client.host), nil).
				WithSuggestion(fmt.Sprintf("run 'quarry models pull %s'", model.Name))
		}
	}

	return e, nil
}

// Client exposes the underlying API client, for health checks.
func (e *OllamaEmbedder) Client() *OllamaClient {
	return e.client
}

// Embed returns one vector per text. Blank texts produce zero vectors
// without a server round trip; the rest go out in batches, each batch
// retried under the shared backoff policy with a per-call timeout.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, errClosed
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			vectors[i] = make([]float32, e.model.Dimensions)
		} else {
			pending = append(pending, i)
		}
	}

	for start := 0; start < len(pending); start += e.batch {
		end := min(start+e.batch, len(pending))
		batch := pending[start:end]
		batchTexts := make([]string, len(batch))
		for i, idx := range batch {
			batchTexts[i] = texts[idx]
		}

		slog.Debug("embed_batch",
			slog.String("model", e.model.Name),
			slog.Int("texts", len(batchTexts)))

		embedded, err := qerrors.DoWithResult(ctx, e.retry, func() ([][]float32, error) {
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()
			return e.client.Embed(callCtx, e.model.Tag, batchTexts)
		})
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(batchTexts) {
			return nil, fmt.Errorf("server returned %d embeddings for %d texts", len(embedded), len(batchTexts))
		}

		for i, vec := range embedded {
			vectors[batch[i]] = vec
		}
	}

	return vectors, nil
}

// EstimateTokens approximates the token count of text.
func (e *OllamaEmbedder) EstimateTokens(text string) int {
	return EstimateTokens(text)
}

// Dimensions returns the embedding dimension of the bound model.
func (e *OllamaEmbedder) Dimensions() int {
	return e.model.Dimensions
}

// ModelName returns the registry name of the bound model.
func (e *OllamaEmbedder) ModelName() string {
	return e.model.Name
}

// Close releases the client's connections. Idempotent.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.client.Close()
	return nil
}
