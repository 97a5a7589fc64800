package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// PullProgress is one status update of a streaming model download.
// Total and Completed are zero for phases that have no byte counts
// (manifest resolution, verification).
type PullProgress struct {
	Status    string
	Total     int64
	Completed int64
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaPullStatus struct {
	Status    string `json:"status"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
	Error     string `json:"error"`
}

// Pull downloads tag through the server, streaming status lines to
// progress. It blocks until the download completes or fails; retrying
// is the caller's concern.
func (c *OllamaClient) Pull(ctx context.Context, tag string, progress func(PullProgress)) error {
	body, err := json.Marshal(ollamaPullRequest{Model: tag, Stream: true})
	if err != nil {
		return fmt.Errorf("marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return qerrors.NetworkError("model pull", true, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return qerrors.NetworkError("model pull", false, httpStatusError(resp))
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var line ollamaPullStatus
		if err := dec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return qerrors.NetworkError("model pull", true, err)
		}
		if line.Error != "" {
			return qerrors.NetworkError("model pull", false, errors.New(line.Error))
		}
		if progress != nil {
			progress(PullProgress{Status: line.Status, Total: line.Total, Completed: line.Completed})
		}
	}
}

// Pull downloads the named model through the Ollama server at host,
// retrying transient failures under the shared backoff policy. Builtin
// models need no download and are rejected.
func Pull(ctx context.Context, host, name string, progress func(PullProgress)) error {
	model, err := Resolve(name)
	if err != nil {
		return err
	}
	if model.Provider != ProviderOllama {
		return fmt.Errorf("model %s is builtin and needs no download", model.Name)
	}

	client := NewOllamaClient(host)
	defer client.Close()

	return qerrors.DefaultRetryPolicy().Do(ctx, func() error {
		return client.Pull(ctx, model.Tag, progress)
	})
}
