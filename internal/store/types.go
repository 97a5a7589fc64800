// Package store persists the index as one JSON sidecar per source file
// under <root>/.quarry/sidecars/, mirroring the source tree. Sidecars are
// published atomically and read back defensively: a corrupt or outdated
// sidecar reads as absent and gets rebuilt on the next index run.
package store

import (
	"path/filepath"
	"strings"

	"github.com/quarrysearch/quarry/internal/chunk"
)

// SchemaVersion is the sidecar format version. Entries written with any
// other version read as absent.
const SchemaVersion = 2

const (
	// DataDirName is the per-project data directory.
	DataDirName = ".quarry"

	// sidecarDirName is the sidecar subtree inside the data directory.
	sidecarDirName = "sidecars"

	// sidecarExt is appended to the source-relative path.
	sidecarExt = ".json"
)

// Fingerprint identifies the exact source state an entry was built from.
// Size and mtime gate the cheap staleness check; ContentHash settles it
// when they drift; Model forces a rebuild on any model switch so vectors
// from different models never mix.
type Fingerprint struct {
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	MtimeNs     int64  `json:"mtime_ns"`
	Model       string `json:"model"`
}

// Entry is one sidecar: the chunks of a single source file plus optional
// embeddings parallel to them. Files indexed with the "none" model carry
// no embeddings at all.
type Entry struct {
	SchemaVersion int           `json:"schema_version"`
	Fingerprint   Fingerprint   `json:"fingerprint"`
	Language      string        `json:"language"`
	Chunks        []chunk.Chunk `json:"chunks"`
	Embeddings    [][]float32   `json:"embeddings,omitempty"`
	Dimensions    int           `json:"dimensions,omitempty"`
}

// Embedded reports whether the entry carries one vector per chunk and can
// serve semantic queries.
func (e *Entry) Embedded() bool {
	return e.Dimensions > 0 && len(e.Chunks) > 0 && len(e.Embeddings) == len(e.Chunks)
}

// DataDir returns the project data directory.
func DataDir(root string) string {
	return filepath.Join(root, DataDirName)
}

// SidecarRoot returns the root of the sidecar tree.
func SidecarRoot(root string) string {
	return filepath.Join(root, DataDirName, sidecarDirName)
}

// SidecarPath maps a root-relative source path to its sidecar path.
func SidecarPath(root, rel string) string {
	return filepath.Join(SidecarRoot(root), rel+sidecarExt)
}

// sourceRel maps a path inside the sidecar tree back to the source path
// relative to the project root. Returns false for paths that are not
// sidecars.
func sourceRel(sidecarRoot, path string) (string, bool) {
	rel, err := filepath.Rel(sidecarRoot, path)
	if err != nil || !strings.HasSuffix(rel, sidecarExt) {
		return "", false
	}
	return strings.TrimSuffix(rel, sidecarExt), true
}
