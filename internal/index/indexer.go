package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/scanner"
	"github.com/quarrysearch/quarry/internal/store"
)

// Update brings the sidecar index under root up to date. Fresh files
// are skipped, touched-but-unchanged files get their fingerprint
// rewritten, and everything else is rebuilt. Per-file failures are
// recorded in the returned stats and do not stop the walk; Update
// errors only when discovery fails, the run is canceled, or files were
// found and none could be processed. The returned stats are valid in
// that last case.
func Update(ctx context.Context, root string, opts Options) (*Stats, error) {
	opts = opts.sanitized()
	start := time.Now()

	embedder := opts.Embedder
	if embedder == nil {
		var err error
		embedder, err = embed.New(ctx, embed.Config{Model: opts.Model})
		if err != nil {
			return nil, err
		}
		defer embedder.Close()
	}

	sc, err := scanner.New()
	if err != nil {
		return nil, err
	}

	u := &updater{
		root:     root,
		opts:     opts,
		scanner:  sc,
		session:  embed.NewSession(embedder),
		model:    embedder.ModelName(),
		dims:     embedder.Dimensions(),
		observer: opts.Observer,
		log:      opts.Logger,
	}

	if err := u.run(ctx); err != nil {
		return nil, err
	}

	stats := u.stats()
	stats.Duration = time.Since(start)

	u.log.Info("index_complete",
		"files_scanned", stats.FilesScanned,
		"files_indexed", stats.FilesIndexed,
		"files_refreshed", stats.FilesRefreshed,
		"files_skipped", stats.FilesSkipped,
		"files_failed", stats.FilesFailed,
		"chunks_embedded", stats.ChunksEmbedded,
		"orphans_removed", stats.OrphansRemoved,
		"degraded", stats.Degraded,
		"model", stats.Model,
		"duration_ms", stats.Duration.Milliseconds())

	if stats.FilesScanned > 0 && stats.Processed() == 0 && stats.FilesFailed > 0 {
		return stats, qerrors.New(qerrors.ErrCodeIndexingFailed,
			fmt.Sprintf("all %d files failed to index", stats.FilesFailed),
			stats.Failures[0].Err)
	}
	return stats, nil
}

// updater carries the state of one Update call across its goroutines.
type updater struct {
	root     string
	opts     Options
	scanner  *scanner.Scanner
	session  *embed.Session
	model    string
	dims     int
	observer Observer
	log      *slog.Logger

	filesTotal     atomic.Int64
	filesDone      atomic.Int64
	indexed        atomic.Int64
	refreshed      atomic.Int64
	skipped        atomic.Int64
	chunksCreated  atomic.Int64
	chunksTotal    atomic.Int64
	chunksEmbedded atomic.Int64
	degraded       atomic.Bool
	orphans        int

	mu       sync.Mutex
	failures []Failure
}

func (u *updater) run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	files := make(chan *scanner.FileInfo)

	g.Go(func() error {
		defer close(files)
		return u.discover(gctx, files)
	})

	for i := 0; i < u.opts.Workers; i++ {
		g.Go(func() error {
			// Chunkers hold one parser each and are not safe to share.
			chunker := chunk.New(chunk.DefaultConfig())
			defer chunker.Close()

			for file := range files {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := u.processFile(gctx, chunker, file); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// The scanner ends its stream quietly on cancellation, so a canceled
	// run can drain without any goroutine reporting it.
	if err := ctx.Err(); err != nil {
		return err
	}

	// Sidecars whose source file is gone are dead weight; drop them at
	// the end of every run.
	removed, err := store.CleanOrphans(u.root)
	if err != nil {
		u.log.Warn("orphan_cleanup_failed", "error", err)
	}
	u.orphans = removed
	return nil
}

// discover streams the files under each target path into out,
// deduplicated across overlapping targets.
func (u *updater) discover(ctx context.Context, out chan<- *scanner.FileInfo) error {
	scanOpts := &scanner.ScanOptions{
		RootDir:          u.root,
		ExcludePatterns:  u.opts.Excludes,
		RespectGitignore: u.opts.RespectIgnore,
		MaxFileSize:      u.opts.MaxFileSize,
	}

	paths := u.opts.Paths
	if len(paths) == 0 {
		paths = []string{""}
	}

	seen := make(map[string]struct{})
	for _, target := range paths {
		if target != "" {
			if _, err := os.Stat(filepath.Join(u.root, target)); err != nil {
				return qerrors.New(qerrors.ErrCodeInvalidPath,
					fmt.Sprintf("path %s does not exist under %s", target, u.root), err)
			}
		}

		results, err := u.scanner.ScanSubtree(ctx, scanOpts, filepath.ToSlash(target))
		if err != nil {
			return err
		}
		for res := range results {
			if res.Error != nil {
				return res.Error
			}
			if _, dup := seen[res.File.Path]; dup {
				continue
			}
			seen[res.File.Path] = struct{}{}
			u.filesTotal.Add(1)

			select {
			case out <- res.File:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// processFile brings one file's sidecar up to date. Only context errors
// propagate; everything else is recorded and the walk continues.
func (u *updater) processFile(ctx context.Context, chunker *chunk.Chunker, file *scanner.FileInfo) error {
	defer func() {
		done := u.filesDone.Add(1)
		u.observer.OnFileProgress(int(done), int(u.filesTotal.Load()), file.Path)
	}()

	if !u.opts.Force {
		if entry, err := store.Read(u.root, file.Path); err == nil && entry != nil {
			switch u.reuse(file, entry) {
			case store.Fresh:
				u.skipped.Add(1)
				return nil
			case store.Refreshed:
				u.refreshed.Add(1)
				return nil
			}
		}
	}

	if err := u.rebuild(ctx, chunker, file); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		u.fail(file.Path, err)
		return nil
	}
	u.indexed.Add(1)
	return nil
}

// reuse checks the stored fingerprint and, on a content-preserving
// drift, republishes the entry with the updated fingerprint. Any
// failure along the way reads as Stale so the file is rebuilt.
func (u *updater) reuse(file *scanner.FileInfo, entry *store.Entry) store.Freshness {
	freshness, fp, err := entry.Fingerprint.Check(file.AbsPath, u.model)
	if err != nil || freshness == store.Stale {
		return store.Stale
	}
	if freshness == store.Fresh {
		return store.Fresh
	}

	entry.Fingerprint = fp
	if err := store.Write(u.root, file.Path, entry); err != nil {
		u.log.Warn("fingerprint_refresh_failed", "path", file.Path, "error", err)
		return store.Stale
	}
	return store.Refreshed
}

// rebuild chunks, embeds, and publishes one file. An embedding failure
// degrades the file to structure-only instead of failing it; the
// sidecar is then stamped with the none model so the next run with a
// real model rebuilds it.
func (u *updater) rebuild(ctx context.Context, chunker *chunk.Chunker, file *scanner.FileInfo) error {
	info, err := os.Stat(file.AbsPath)
	if err != nil {
		return qerrors.FileAccessError(file.Path, "stat", err)
	}
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return qerrors.FileAccessError(file.Path, "read", err)
	}

	chunks, err := chunker.Chunk(ctx, file.Path, content)
	if err != nil {
		return qerrors.IndexingFailed(file.Path, "chunking failed", err)
	}

	entry := &store.Entry{
		Fingerprint: store.FingerprintContent(content, info, u.model),
		Language:    file.Language,
		Chunks:      chunks,
	}

	if u.dims > 0 && len(chunks) > 0 {
		u.chunksTotal.Add(int64(len(chunks)))
		vectors, err := u.embedChunks(ctx, chunks)
		switch {
		case err == nil:
			entry.Embeddings = vectors
			entry.Dimensions = u.dims
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			u.log.Warn("embedding_degraded", "path", file.Path, "error", err)
			u.degraded.Store(true)
			entry.Fingerprint.Model = embed.ModelNone
		}
	}

	if err := store.Write(u.root, file.Path, entry); err != nil {
		return qerrors.IndexingFailed(file.Path, "sidecar write failed", err)
	}
	u.chunksCreated.Add(int64(len(chunks)))
	return nil
}

// embedChunks submits the file's chunk texts through the shared session
// in batches, reporting progress after each one.
func (u *updater) embedChunks(ctx context.Context, chunks []chunk.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embed.DefaultBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+embed.DefaultBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Text)
		}

		batch, err := u.session.Embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(batch), len(texts))
		}

		vectors = append(vectors, batch...)
		done := u.chunksEmbedded.Add(int64(len(batch)))
		u.observer.OnChunkProgress(int(done), int(u.chunksTotal.Load()))
	}
	return vectors, nil
}

func (u *updater) fail(path string, err error) {
	u.log.Warn("file_index_failed", "path", path, "error", err)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures = append(u.failures, Failure{Path: path, Err: err})
}

func (u *updater) stats() *Stats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return &Stats{
		FilesScanned:   int(u.filesTotal.Load()),
		FilesIndexed:   int(u.indexed.Load()),
		FilesRefreshed: int(u.refreshed.Load()),
		FilesSkipped:   int(u.skipped.Load()),
		FilesFailed:    len(u.failures),
		ChunksCreated:  int(u.chunksCreated.Load()),
		ChunksEmbedded: int(u.chunksEmbedded.Load()),
		OrphansRemoved: u.orphans,
		Degraded:       u.degraded.Load() || u.session.Degraded(),
		Model:          u.model,
		Failures:       u.failures,
	}
}
