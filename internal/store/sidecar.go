package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
)

// Read loads the sidecar for rel, or nil when no usable sidecar exists.
// A missing file, unparseable JSON, or a schema version other than the
// current one all read as absent; these are rebuild triggers, not errors.
func Read(root, rel string) (*Entry, error) {
	data, err := os.ReadFile(SidecarPath(root, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sidecar for %s: %w", rel, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Truncated or corrupt writes read as absent.
		return nil, nil
	}
	if entry.SchemaVersion != SchemaVersion {
		return nil, nil
	}
	return &entry, nil
}

// Write publishes the sidecar for rel atomically: the entry is serialized
// in full, written to a temp file next to the target, and renamed into
// place. Readers observe the old entry or the new one, never a mix.
func Write(root, rel string, entry *Entry) error {
	entry.SchemaVersion = SchemaVersion

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode sidecar for %s: %w", rel, err)
	}

	path := SidecarPath(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sidecar directory for %s: %w", rel, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("publish sidecar for %s: %w", rel, err)
	}
	return nil
}

// Remove deletes the sidecar for rel and prunes directories it leaves
// empty. Removing an absent sidecar is not an error.
func Remove(root, rel string) error {
	path := SidecarPath(root, rel)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove sidecar for %s: %w", rel, err)
	}
	pruneEmptyDirs(filepath.Dir(path), SidecarRoot(root))
	return nil
}

// List returns the source-relative path of every sidecar under root,
// sorted and slash-separated. Entries are not parsed; corrupt sidecars
// still list.
func List(root string) ([]string, error) {
	var paths []string
	err := walkSidecars(root, func(rel, _ string, _ fs.FileInfo) error {
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// pruneEmptyDirs removes empty directories from dir up to (but not
// including) stop.
func pruneEmptyDirs(dir, stop string) {
	for dir != stop && len(dir) > len(stop) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// walkSidecars visits every sidecar under root, reporting the source path
// relative to the project root. A missing sidecar tree visits nothing.
func walkSidecars(root string, fn func(rel, path string, info fs.FileInfo) error) error {
	sidecarRoot := SidecarRoot(root)
	err := filepath.Walk(sidecarRoot, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, ok := sourceRel(sidecarRoot, path)
		if !ok {
			return nil
		}
		return fn(rel, path, info)
	})
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
