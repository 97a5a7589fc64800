package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() StatusInfo {
	return StatusInfo{
		Root:          "/home/dev/project",
		Files:         42,
		Chunks:        380,
		EmbeddedFiles: 40,
		SizeBytes:     2 << 20,
		LastIndexed:   time.Now().Add(-3 * time.Minute),
		Model:         "nomic-embed-text-v1.5",
		Backend:       "ollama",
		BackendStatus: "ready",
		Dimensions:    768,
	}
}

func TestStatusRenderer_Text(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	require.NoError(t, r.Render(sampleStatus()))

	out := buf.String()
	assert.Contains(t, out, "index: /home/dev/project")
	assert.Contains(t, out, "files:    42 (40 with vectors)")
	assert.Contains(t, out, "chunks:   380")
	assert.Contains(t, out, "2.0 MB")
	assert.Contains(t, out, "3 minutes ago")
	assert.Contains(t, out, "nomic-embed-text-v1.5 (ollama, 768 dims)")
	assert.Contains(t, out, "backend:  ready")
}

func TestStatusRenderer_WarnsAboutOrphansAndStale(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	info := sampleStatus()
	info.Orphans = 3
	info.Unreadable = 1
	require.NoError(t, r.Render(info))

	out := buf.String()
	assert.Contains(t, out, "orphans:  3 entries for deleted files")
	assert.Contains(t, out, "stale:    1 unreadable entries")
}

func TestStatusRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewStatusRenderer(&buf, true)

	require.NoError(t, r.RenderJSON(sampleStatus()))

	var decoded StatusInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 42, decoded.Files)
	assert.Equal(t, "ollama", decoded.Backend)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 20, "3.0 MB"},
		{5 << 30, "5.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.n))
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "just now", formatAge(now.Add(-10*time.Second)))
	assert.Equal(t, "1 minute ago", formatAge(now.Add(-70*time.Second)))
	assert.Equal(t, "2 hours ago", formatAge(now.Add(-2*time.Hour)))
	assert.Equal(t, "3 days ago", formatAge(now.Add(-72*time.Hour)))
}
