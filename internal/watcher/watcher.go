// Package watcher drives `quarry index --watch`: an fsnotify watch over
// the project tree whose events are debounced into batches the command
// loop turns into incremental index runs.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrysearch/quarry/internal/store"
)

// Op classifies a file change.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpDelete
	OpRename
)

// String returns the op name for logs.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one debounced file change, path relative to the watch root.
type Event struct {
	Path  string
	Op    Op
	IsDir bool
}

// Options configures a Watcher. Zero values take defaults.
type Options struct {
	// Debounce is the quiet window before a batch is emitted.
	Debounce time.Duration

	// Excludes are directory names (path prefixes) never watched,
	// beyond the built-in .git and data directory skips.
	Excludes []string
}

// DefaultDebounce matches the indexer's change coalescing window.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a tree and emits debounced event batches.
type Watcher struct {
	fw   *fsnotify.Watcher
	deb  *Debouncer
	opts Options
	root string

	errs chan error
	stop chan struct{}
	once sync.Once
}

// New creates a Watcher. Callers must Start it and eventually Stop it.
func New(opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}

	return &Watcher{
		fw:   fw,
		deb:  NewDebouncer(opts.Debounce),
		opts: opts,
		errs: make(chan error, 10),
		stop: make(chan struct{}),
	}, nil
}

// Start watches root recursively and blocks until ctx is canceled or
// Stop is called. Batches arrive on Batches while it runs.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	w.root = abs

	if err := w.addTree(abs); err != nil {
		return fmt.Errorf("watch tree: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stop:
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

// Batches returns the debounced event batches.
func (w *Watcher) Batches() <-chan []Event {
	return w.deb.Output()
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stop)
		w.deb.Stop()
		close(w.errs)
		err = w.fw.Close()
	})
	return err
}

// handle converts one fsnotify event, maintaining the watch set as
// directories come and go.
func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		rel = ev.Name
	}
	rel = filepath.ToSlash(rel)

	isDir := false
	if info, statErr := os.Stat(ev.Name); statErr == nil {
		isDir = info.IsDir()
	}

	if w.skip(rel) {
		return
	}

	var op Op
	switch {
	case ev.Op&fsnotify.Create != 0:
		op = OpCreate
		// New directories join the watch set so nothing under them is
		// missed.
		if isDir {
			_ = w.fw.Add(ev.Name)
		}
	case ev.Op&fsnotify.Write != 0:
		op = OpModify
	case ev.Op&fsnotify.Remove != 0:
		op = OpDelete
	case ev.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and friends carry no content change.
		return
	}

	w.deb.Add(Event{Path: rel, Op: op, IsDir: isDir})
}

// addTree registers root and every non-excluded directory under it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if rel == "." {
			return w.fw.Add(path)
		}
		if w.skip(rel) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

// skip filters paths that never concern the index.
func (w *Watcher) skip(rel string) bool {
	if rel == "" || rel == "." {
		return true
	}
	if rel == ".git" || strings.HasPrefix(rel, ".git/") {
		return true
	}
	if rel == store.DataDirName || strings.HasPrefix(rel, store.DataDirName+"/") {
		return true
	}
	for _, ex := range w.opts.Excludes {
		ex = strings.Trim(ex, "/")
		if ex == "" {
			continue
		}
		if rel == ex || strings.HasPrefix(rel, ex+"/") {
			return true
		}
	}
	return false
}

// reportError forwards a watcher error without ever blocking.
func (w *Watcher) reportError(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
