package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher runs a watcher over root on a background goroutine.
func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx, root) }()
	t.Cleanup(func() { _ = w.Stop() })

	// Give the kernel watch a moment to arm.
	time.Sleep(100 * time.Millisecond)
	return w
}

func awaitBatch(t *testing.T, w *Watcher) []Event {
	t.Helper()
	select {
	case batch := <-w.Batches():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("no batch arrived")
		return nil
	}
}

func TestWatcher_SeesNewFile(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "a.go", batch[0].Path)
}

func TestWatcher_SeesModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n"), 0o644))

	w := startWatcher(t, root)
	require.NoError(t, os.WriteFile(path, []byte("package a // changed\n"), 0o644))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "a.go", batch[0].Path)
}

func TestWatcher_IgnoresDataDir(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".quarry"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".quarry", "lock"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.go"), []byte("package real\n"), 0o644))

	batch := awaitBatch(t, w)
	for _, ev := range batch {
		assert.NotContains(t, ev.Path, ".quarry")
	}
}

func TestWatcher_HonorsExcludes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	w, err := New(Options{Debounce: 50 * time.Millisecond, Excludes: []string{"vendor"}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx, root) }()
	t.Cleanup(func() { _ = w.Stop() })
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "dep.go"), []byte("package dep\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mine.go"), []byte("package mine\n"), 0o644))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	for _, ev := range batch {
		assert.Equal(t, "mine.go", ev.Path)
	}
}

func TestWatcher_NewDirectoryJoinsWatchSet(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	awaitBatch(t, w) // the directory create itself

	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.go"), []byte("package sub\n"), 0o644))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "sub/b.go", batch[0].Path)
}

func TestWatcher_StopTwiceIsSafe(t *testing.T) {
	w, err := New(Options{})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
