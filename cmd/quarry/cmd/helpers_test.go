package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/chunk"
	"github.com/quarrysearch/quarry/internal/store"
)

// chdir moves the test into dir and restores the previous working
// directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
}

// pinRoot marks dir as a project root so root discovery stops there.
func pinRoot(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
}

// writeSource creates a file under root, with parent directories.
func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// runCommand executes cmd with args and returns its combined output.
func runCommand(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// embeddedEntry builds a sidecar entry with one embedded chunk.
func embeddedEntry(model string) *store.Entry {
	return &store.Entry{
		Fingerprint: store.Fingerprint{
			ContentHash: "00000000cafef00d",
			Size:        64,
			MtimeNs:     1_700_000_000_000_000_000,
			Model:       model,
		},
		Language: "go",
		Chunks: []chunk.Chunk{{
			Text:   "func Hello() string {\n\treturn \"hi\"\n}",
			Span:   chunk.Span{StartLine: 3, EndLine: 5},
			Symbol: &chunk.Symbol{Kind: chunk.KindFunction, Name: "Hello"},
		}},
		Embeddings: [][]float32{{0.6, 0.8}},
		Dimensions: 2,
	}
}

// structureEntry builds a sidecar entry without vectors, the shape a
// degraded index run produces.
func structureEntry() *store.Entry {
	entry := embeddedEntry("none")
	entry.Embeddings = nil
	entry.Dimensions = 0
	return entry
}
