package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/quarrysearch/quarry/internal/chunk"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/scanner"
	"github.com/quarrysearch/quarry/internal/store"
)

// candidate is one file's searchable content: its chunks, and its
// embeddings when a fresh embedded sidecar provided them.
type candidate struct {
	file     string
	language string
	chunks   []chunk.Chunk
	vectors  [][]float32
}

// embedded reports whether every chunk carries a vector.
func (c *candidate) embedded() bool {
	return len(c.vectors) == len(c.chunks) && len(c.chunks) > 0
}

// corpus is the candidate set of one scored search call.
type corpus struct {
	files map[string]*candidate
	order []string
}

// embeddedCount returns how many candidates can serve semantic queries.
func (c *corpus) embeddedCount() int {
	n := 0
	for _, f := range c.files {
		if f.embedded() {
			n++
		}
	}
	return n
}

// chunkCount sums chunks across candidates.
func (c *corpus) chunkCount() int {
	n := 0
	for _, f := range c.files {
		n += len(f.chunks)
	}
	return n
}

// scanTargets streams the files under each target path, deduplicated.
// Target paths must exist under the root.
func (e *Engine) scanTargets(ctx context.Context, opts Options, visit func(*scanner.FileInfo) error) error {
	scanOpts := &scanner.ScanOptions{
		RootDir:          e.root,
		ExcludePatterns:  opts.Excludes,
		RespectGitignore: !opts.NoIgnore,
		MaxFileSize:      opts.MaxFileSize,
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{""}
	}

	seen := make(map[string]struct{})
	for _, target := range paths {
		if target != "" {
			if _, err := os.Stat(filepath.Join(e.root, target)); err != nil {
				return qerrors.New(qerrors.ErrCodeInvalidPath,
					fmt.Sprintf("path %s does not exist under %s", target, e.root), err)
			}
		}

		results, err := e.scanner.ScanSubtree(ctx, scanOpts, filepath.ToSlash(target))
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
			if err := visit(res.File); err != nil {
				return err
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// loadCorpus builds the candidate set for the scored modes. Fresh
// sidecars supply chunks (and vectors when embedded); content-stale
// sidecars are ignored. When vectors are not required, files without a
// usable sidecar are chunked on the fly so lexical search works on
// unindexed trees.
func (e *Engine) loadCorpus(ctx context.Context, opts Options, needVectors bool) (*corpus, error) {
	c := &corpus{files: make(map[string]*candidate)}

	var chunker *chunk.Chunker
	if !needVectors {
		chunker = chunk.New(chunk.DefaultConfig())
		defer chunker.Close()
	}

	err := e.scanTargets(ctx, opts, func(file *scanner.FileInfo) error {
		if cand := e.loadSidecar(file, needVectors); cand != nil {
			c.files[file.Path] = cand
			c.order = append(c.order, file.Path)
			return nil
		}
		if needVectors {
			return nil
		}

		cand, err := liveChunk(ctx, chunker, file)
		if err != nil || cand == nil {
			// Unreadable or non-text content drops out of the corpus.
			return nil
		}
		c.files[file.Path] = cand
		c.order = append(c.order, file.Path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(c.order)
	return c, nil
}

// loadSidecar returns the file's candidate when a usable fresh sidecar
// exists. For vector-backed modes the sidecar must be embedded and built
// with the engine's model; otherwise any content-fresh sidecar serves,
// whatever model wrote it, since chunks do not depend on the model.
func (e *Engine) loadSidecar(file *scanner.FileInfo, needVectors bool) *candidate {
	entry, err := store.Read(e.root, file.Path)
	if err != nil || entry == nil {
		return nil
	}

	model := entry.Fingerprint.Model
	if needVectors {
		if !entry.Embedded() {
			return nil
		}
		model = e.model
	}

	freshness, _, err := entry.Fingerprint.Check(file.AbsPath, model)
	if err != nil || freshness == store.Stale {
		return nil
	}

	cand := &candidate{
		file:     file.Path,
		language: entry.Language,
		chunks:   entry.Chunks,
	}
	if entry.Embedded() {
		cand.vectors = entry.Embeddings
	}
	return cand
}

// liveChunk chunks a file that has no usable sidecar. Nothing is
// persisted; the chunks serve this one query.
func liveChunk(ctx context.Context, chunker *chunk.Chunker, file *scanner.FileInfo) (*candidate, error) {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return nil, err
	}
	chunks, err := chunker.Chunk(ctx, file.Path, content)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}
	return &candidate{
		file:     file.Path,
		language: file.Language,
		chunks:   chunks,
	}, nil
}
