package embed

import (
	"context"
	"sync"
	"time"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// Breaker settings for the embed session: trip after five consecutive
// failures, probe again after thirty seconds.
const (
	sessionMaxFailures  = 5
	sessionResetTimeout = 30 * time.Second
)

// Session is the single embedding pipeline of an index run. Workers
// chunk files in parallel but submit every batch here, so exactly one
// model session exists per run. A circuit breaker trips after repeated
// consecutive failures, failing the rest of the run fast instead of
// waiting out a full timeout per file.
type Session struct {
	embedder Embedder
	breaker  *qerrors.CircuitBreaker
	mu       sync.Mutex
}

// NewSession wraps embedder for use by one index run. The session does
// not own the embedder; the caller closes it.
func NewSession(embedder Embedder) *Session {
	return &Session{
		embedder: embedder,
		breaker: qerrors.NewCircuitBreaker("embed",
			qerrors.WithMaxFailures(sessionMaxFailures),
			qerrors.WithResetTimeout(sessionResetTimeout)),
	}
}

// Embed submits one batch to the shared session. Batches are
// serialized; a tripped breaker reports EmbeddingUnavailable without
// touching the backend.
func (s *Session) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !s.breaker.Allow() {
		return nil, qerrors.EmbeddingUnavailable("backend failing repeatedly", qerrors.ErrCircuitOpen)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		// Cancellation is the caller's choice, not a backend fault.
		if ctx.Err() == nil {
			s.breaker.RecordFailure()
		}
		return nil, err
	}

	s.breaker.RecordSuccess()
	return vectors, nil
}

// Degraded reports whether the breaker has tripped and the remainder of
// the run will index structure only.
func (s *Session) Degraded() bool {
	return !s.breaker.Allow()
}

// Failures returns the current consecutive failure count.
func (s *Session) Failures() int {
	return s.breaker.Failures()
}
