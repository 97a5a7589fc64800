package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Clean removes the entire sidecar tree under root. The data directory
// itself stays; it may hold the telemetry database and the index lock.
func Clean(root string) error {
	if err := os.RemoveAll(SidecarRoot(root)); err != nil {
		return fmt.Errorf("clean sidecar tree: %w", err)
	}
	return nil
}

// CleanOrphans removes exactly the sidecars whose source file no longer
// exists and returns how many were removed.
func CleanOrphans(root string) (int, error) {
	var orphans []string
	err := walkSidecars(root, func(rel, path string, info fs.FileInfo) error {
		if _, err := os.Stat(filepath.Join(root, rel)); err == nil {
			return nil
		}
		orphans = append(orphans, rel)
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Strings(orphans)

	removed := 0
	for _, rel := range orphans {
		if err := Remove(root, rel); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
