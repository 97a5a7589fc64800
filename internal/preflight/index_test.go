package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/store"
)

// indexFixture writes a source file and its sidecar under root.
func indexFixture(t *testing.T, root, rel, model string) {
	t.Helper()

	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("package x\n"), 0o644))

	entry := &store.Entry{
		Fingerprint: store.Fingerprint{
			ContentHash: "00000000deadbeef",
			Size:        10,
			MtimeNs:     1_700_000_000_000_000_000,
			Model:       model,
		},
		Language: "go",
		Chunks: []chunk.Chunk{
			{Text: "package x", Span: chunk.Span{StartLine: 1, EndLine: 1}},
		},
		Embeddings: [][]float32{{1, 0}},
		Dimensions: 2,
	}
	require.NoError(t, store.Write(root, rel, entry))
}

func TestChecker_CheckIndex_NotIndexed(t *testing.T) {
	root := t.TempDir()

	result := New().CheckIndex(root)

	assert.Equal(t, "index", result.Name)
	assert.False(t, result.Required)
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "run 'quarry index'")
	assert.Contains(t, result.Details, store.DataDir(root))
}

func TestChecker_CheckIndex_Healthy(t *testing.T) {
	root := t.TempDir()
	indexFixture(t, root, "a.go", "static")
	indexFixture(t, root, filepath.Join("pkg", "b.go"), "static")

	result := New().CheckIndex(root)

	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "2 files")
	assert.Contains(t, result.Message, "2 chunks")
}

func TestChecker_CheckIndex_UnreadableEntries(t *testing.T) {
	root := t.TempDir()
	indexFixture(t, root, "a.go", "static")

	corrupt := store.SidecarPath(root, "b.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(corrupt), 0o755))
	require.NoError(t, os.WriteFile(corrupt, []byte("%%"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package x\n"), 0o644))

	result := New().CheckIndex(root)

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "1 entries unreadable")
	assert.Contains(t, result.Details, "quarry index")
}

func TestChecker_CheckIndex_Orphans(t *testing.T) {
	root := t.TempDir()
	indexFixture(t, root, "a.go", "static")
	require.NoError(t, os.Remove(filepath.Join(root, "a.go")))

	result := New().CheckIndex(root)

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "1 orphaned entries")
}

func TestChecker_CheckIndex_MixedModels(t *testing.T) {
	root := t.TempDir()
	indexFixture(t, root, "a.go", "static")
	indexFixture(t, root, "b.go", "nomic-embed-text-v1.5")

	result := New().CheckIndex(root)

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "2 different models")
}
