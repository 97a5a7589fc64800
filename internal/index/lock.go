package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/store"
)

// lockFileName lives directly under the data directory, next to the
// sidecar tree.
const lockFileName = "lock"

// Lock is an exclusive advisory lock over one root's index. The CLI
// takes it around every index run so two writers never interleave; the
// core itself relies only on atomic sidecar publishes.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the index lock for root without blocking. A held
// lock reports ErrCodeIndexLocked.
func AcquireLock(root string) (*Lock, error) {
	dir := store.DataDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, qerrors.FileAccessError(dir, "create", err)
	}

	fl := flock.New(filepath.Join(dir, lockFileName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, qerrors.New(qerrors.ErrCodeIndexLocked,
			fmt.Sprintf("cannot acquire index lock for %s", root), err)
	}
	if !ok {
		return nil, qerrors.New(qerrors.ErrCodeIndexLocked,
			fmt.Sprintf("another index run is active for %s", root), nil).
			WithSuggestion("wait for the running 'quarry index' to finish, or remove a stale .quarry/lock")
	}
	return &Lock{fl: fl}, nil
}

// Release frees the lock. Safe to call on an already released lock.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
