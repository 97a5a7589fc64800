// Package index builds and maintains the sidecar index incrementally.
// An update walks the tree, decides rebuild-or-reuse per file from the
// stored fingerprint, chunks changed files in parallel, and embeds
// their chunks through one shared session. Every sidecar publish is
// atomic, so an interrupted run leaves only complete entries behind.
package index

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/quarrysearch/quarry/internal/embed"
)

// maxDefaultWorkers caps the default pool; chunking saturates well
// before the core count on big machines.
const maxDefaultWorkers = 8

// Options configures one index update.
type Options struct {
	// Force rebuilds every file regardless of fingerprints.
	Force bool

	// Excludes adds glob patterns to the scan exclusions.
	Excludes []string

	// Model names the embedding model; empty selects the default.
	// Ignored when Embedder is set.
	Model string

	// RespectIgnore honors .gitignore files during discovery.
	RespectIgnore bool

	// Workers bounds parallel chunking; 0 selects min(NumCPU, 8).
	Workers int

	// Paths restricts the walk to these root-relative subtrees. Empty
	// walks the whole root.
	Paths []string

	// MaxFileSize caps indexed files in bytes; 0 keeps the scanner
	// default.
	MaxFileSize int64

	// Observer receives progress callbacks; nil discards them.
	Observer Observer

	// Embedder overrides model resolution. The caller keeps ownership
	// and closes it.
	Embedder embed.Embedder

	// Logger overrides the default logger.
	Logger *slog.Logger
}

// sanitized fills defaulted fields.
func (o Options) sanitized() Options {
	if o.Workers <= 0 {
		o.Workers = min(runtime.NumCPU(), maxDefaultWorkers)
	}
	if o.Observer == nil {
		o.Observer = NopObserver{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Failure records one file the run could not index.
type Failure struct {
	Path string
	Err  error
}

// Stats summarizes one index update.
type Stats struct {
	// FilesScanned is the number of files discovery yielded.
	FilesScanned int

	// FilesIndexed counts files chunked (and embedded) from scratch.
	FilesIndexed int

	// FilesRefreshed counts files whose content was unchanged but whose
	// fingerprint was rewritten after a size/mtime drift.
	FilesRefreshed int

	// FilesSkipped counts files left untouched because their sidecar
	// was fresh.
	FilesSkipped int

	// FilesFailed counts files recorded in Failures.
	FilesFailed int

	// ChunksCreated counts chunks written across rebuilt files.
	ChunksCreated int

	// ChunksEmbedded counts chunks that received vectors.
	ChunksEmbedded int

	// OrphansRemoved counts sidecars deleted because their source file
	// is gone.
	OrphansRemoved int

	// Degraded reports that at least part of the run fell back to
	// structure-only indexing because embeddings were unavailable.
	Degraded bool

	// Model is the effective embedding model of the run.
	Model string

	// Duration is the wall time of the run.
	Duration time.Duration

	// Failures lists every file that could not be indexed.
	Failures []Failure
}

// Processed returns how many files the run handled successfully.
func (s *Stats) Processed() int {
	return s.FilesIndexed + s.FilesRefreshed + s.FilesSkipped
}
