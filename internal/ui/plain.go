package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/quarrysearch/quarry/internal/index"
)

// Plain writes one line per event, suited to CI logs and pipes.
type Plain struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlain creates a plain line renderer.
func NewPlain(cfg Config) *Plain {
	return &Plain{out: cfg.Output}
}

// Start implements Renderer.
func (p *Plain) Start(ctx context.Context) error { return nil }

// OnFileProgress implements Renderer.
func (p *Plain) OnFileProgress(done, total int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s\n", done, total, path)
}

// OnChunkProgress implements Renderer. The indexer reports once per
// embedding batch, so this stays quiet enough for logs.
func (p *Plain) OnChunkProgress(done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "embedded %d/%d chunks\n", done, total)
}

// Complete implements Renderer.
func (p *Plain) Complete(stats *index.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.out, "indexed %d files (%d refreshed, %d unchanged) in %s\n",
		stats.FilesIndexed, stats.FilesRefreshed, stats.FilesSkipped,
		stats.Duration.Round(100*time.Millisecond))
	if stats.ChunksCreated > 0 {
		_, _ = fmt.Fprintf(p.out, "chunks: %d parsed, %d embedded (%s)\n",
			stats.ChunksCreated, stats.ChunksEmbedded, stats.Model)
	}
	if stats.OrphansRemoved > 0 {
		_, _ = fmt.Fprintf(p.out, "removed %d orphaned entries\n", stats.OrphansRemoved)
	}
	if stats.Degraded {
		_, _ = fmt.Fprintln(p.out, "WARN: embedding backend unavailable, some files indexed without vectors")
	}
	for _, f := range stats.Failures {
		_, _ = fmt.Fprintf(p.out, "ERROR: %s: %v\n", f.Path, f.Err)
	}
}

// Stop implements Renderer.
func (p *Plain) Stop() error { return nil }

var _ Renderer = (*Plain)(nil)
