package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/index"
)

func TestPlain_FileProgressLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(Config{Output: &buf})
	require.NoError(t, p.Start(context.Background()))

	p.OnFileProgress(1, 3, "internal/search/engine.go")
	p.OnFileProgress(2, 3, "internal/store/sidecar.go")

	out := buf.String()
	assert.Contains(t, out, "[1/3] internal/search/engine.go")
	assert.Contains(t, out, "[2/3] internal/store/sidecar.go")
}

func TestPlain_ChunkProgressLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(Config{Output: &buf})

	p.OnChunkProgress(64, 128)

	assert.Contains(t, buf.String(), "embedded 64/128 chunks")
}

func TestPlain_CompleteSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(Config{Output: &buf})

	p.Complete(&index.Stats{
		FilesIndexed:   10,
		FilesRefreshed: 2,
		FilesSkipped:   30,
		ChunksCreated:  120,
		ChunksEmbedded: 120,
		OrphansRemoved: 1,
		Model:          "static",
		Duration:       1400 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "indexed 10 files (2 refreshed, 30 unchanged) in 1.4s")
	assert.Contains(t, out, "chunks: 120 parsed, 120 embedded (static)")
	assert.Contains(t, out, "removed 1 orphaned entries")
	assert.NotContains(t, out, "WARN")
	assert.NotContains(t, out, "ERROR")
}

func TestPlain_CompleteReportsDegradationAndFailures(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(Config{Output: &buf})

	p.Complete(&index.Stats{
		FilesIndexed: 1,
		FilesFailed:  1,
		Degraded:     true,
		Failures: []index.Failure{
			{Path: "sub/bad.go", Err: errors.New("sidecar write failed")},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "WARN: embedding backend unavailable")
	assert.Contains(t, out, "ERROR: sub/bad.go: sidecar write failed")
}

func TestPlain_StopIsANoop(t *testing.T) {
	p := NewPlain(Config{Output: &bytes.Buffer{}})
	assert.NoError(t, p.Stop())
}
