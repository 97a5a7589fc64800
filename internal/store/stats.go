package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Stats summarizes the sidecar tree of a project.
type Stats struct {
	// TotalFiles is the number of readable sidecar entries.
	TotalFiles int

	// TotalChunks sums chunks across all entries.
	TotalChunks int

	// EmbeddedFiles counts entries that carry embeddings.
	EmbeddedFiles int

	// SizeBytes is the on-disk size of the sidecar tree.
	SizeBytes int64

	// LastModified is the newest sidecar write time.
	LastModified time.Time

	// Models counts entries per embedding model name.
	Models map[string]int

	// Orphans lists source-relative paths whose source file is gone.
	Orphans []string

	// Unreadable counts sidecar files that failed to parse or carry a
	// different schema version. They will be rebuilt on the next run.
	Unreadable int
}

// Empty reports whether no index exists under the walked root.
func (s *Stats) Empty() bool {
	return s.TotalFiles == 0 && s.Unreadable == 0
}

// CollectStats walks the sidecar tree under root. A missing tree yields
// zero stats, not an error.
func CollectStats(root string) (*Stats, error) {
	stats := &Stats{Models: make(map[string]int)}

	err := walkSidecars(root, func(rel, path string, info fs.FileInfo) error {
		stats.SizeBytes += info.Size()
		if info.ModTime().After(stats.LastModified) {
			stats.LastModified = info.ModTime()
		}

		entry, err := Read(root, rel)
		if err != nil {
			return err
		}
		if entry == nil {
			stats.Unreadable++
			return nil
		}

		stats.TotalFiles++
		stats.TotalChunks += len(entry.Chunks)
		if entry.Embedded() {
			stats.EmbeddedFiles++
		}
		if entry.Fingerprint.Model != "" {
			stats.Models[entry.Fingerprint.Model]++
		}

		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			stats.Orphans = append(stats.Orphans, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
