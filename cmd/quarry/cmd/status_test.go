package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrysearch/quarry/internal/config"
	"github.com/quarrysearch/quarry/internal/embed"
	qerrors "github.com/quarrysearch/quarry/internal/errors"
	"github.com/quarrysearch/quarry/internal/store"
	"github.com/quarrysearch/quarry/internal/telemetry"
)

func TestStatusCmd_NoIndex(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := runCommand(newStatusCmd())

	require.Error(t, err)
	assert.Equal(t, qerrors.ErrCodeNotIndexed, qerrors.GetCode(err))
}

func TestStatusCmd_JSONReport(t *testing.T) {
	// Given: an index with one embedded and one structure-only file
	tmpDir := t.TempDir()
	writeSource(t, tmpDir, ".quarry.yaml", "embedding:\n  model: static\n")
	writeSource(t, tmpDir, "a.go", "package a\n")
	writeSource(t, tmpDir, "b.go", "package b\n")
	require.NoError(t, store.Write(tmpDir, "a.go", embeddedEntry("static")))
	require.NoError(t, store.Write(tmpDir, "b.go", structureEntry()))
	chdir(t, tmpDir)

	// When: reporting as JSON
	out, err := runCommand(newStatusCmd(), "--json")

	// Then: counts and the probed backend come through
	require.NoError(t, err)
	var report struct {
		Files         int    `json:"files"`
		Chunks        int    `json:"chunks"`
		EmbeddedFiles int    `json:"embedded_files"`
		Model         string `json:"model"`
		Backend       string `json:"backend"`
		BackendStatus string `json:"backend_status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 2, report.Chunks)
	assert.Equal(t, 1, report.EmbeddedFiles)
	assert.Equal(t, "static", report.Model)
	assert.Equal(t, "static", report.Backend)
	assert.Equal(t, "ready", report.BackendStatus)
}

func TestCollectStatus_ResolvedModel(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "a.go", "package a\n")
	require.NoError(t, store.Write(root, "a.go", embeddedEntry("static")))
	stats, err := store.CollectStats(root)
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Embedding.Model = "static"

	info := collectStatus(context.Background(), root, cfg, stats)

	assert.Equal(t, root, info.Root)
	assert.Equal(t, 1, info.Files)
	assert.Equal(t, 1, info.EmbeddedFiles)
	assert.Equal(t, "static", info.Model)
	assert.Equal(t, "static", info.Backend)
	assert.Equal(t, "ready", info.BackendStatus)
	assert.Equal(t, embed.StaticDimensions, info.Dimensions)
	assert.Zero(t, info.Orphans)
}

func TestCollectStatus_UnknownModel(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, store.Write(root, "a.go", embeddedEntry("static")))
	stats, err := store.CollectStats(root)
	require.NoError(t, err)

	cfg := config.NewConfig()
	cfg.Embedding.Model = "mystery-model"

	info := collectStatus(context.Background(), root, cfg, stats)

	assert.Equal(t, "mystery-model", info.Model)
	assert.Equal(t, "unknown", info.Backend)
	assert.Equal(t, "unknown model", info.BackendStatus)
}

// fakeTagsServer answers /api/tags with the given installed models.
func fakeTagsServer(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		type modelInfo struct {
			Name string `json:"name"`
		}
		resp := struct {
			Models []modelInfo `json:"models"`
		}{}
		for _, n := range names {
			resp.Models = append(resp.Models, modelInfo{Name: n})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeBackend(t *testing.T) {
	ctx := context.Background()

	staticModel, err := embed.Resolve(embed.ModelStatic)
	require.NoError(t, err)
	ollamaModel, err := embed.Resolve(embed.DefaultModel)
	require.NoError(t, err)

	t.Run("builtin providers are always ready", func(t *testing.T) {
		assert.Equal(t, "ready", probeBackend(ctx, staticModel, ""))
	})

	t.Run("server down is unreachable", func(t *testing.T) {
		assert.Equal(t, "unreachable", probeBackend(ctx, ollamaModel, "http://127.0.0.1:1"))
	})

	t.Run("server up without the model is offline", func(t *testing.T) {
		srv := fakeTagsServer(t, "llama3:latest")
		assert.Equal(t, "offline", probeBackend(ctx, ollamaModel, srv.URL))
	})

	t.Run("installed model is ready", func(t *testing.T) {
		srv := fakeTagsServer(t, ollamaModel.Tag+":latest")
		assert.Equal(t, "ready", probeBackend(ctx, ollamaModel, srv.URL))
	})
}

func TestPrintOrphans_CapsTheList(t *testing.T) {
	var orphans []string
	for i := 0; i < 15; i++ {
		orphans = append(orphans, fmt.Sprintf("old/file%02d.go", i))
	}
	buf := &bytes.Buffer{}

	printOrphans(buf, orphans)

	out := buf.String()
	assert.Contains(t, out, "old/file00.go")
	assert.Contains(t, out, "old/file09.go")
	assert.NotContains(t, out, "old/file10.go")
	assert.Contains(t, out, "... and 5 more")
	assert.Contains(t, out, "quarry clean --orphans")
}

func TestPrintOrphans_ShortList(t *testing.T) {
	buf := &bytes.Buffer{}

	printOrphans(buf, []string{"gone.go"})

	assert.Contains(t, buf.String(), "gone.go")
	assert.NotContains(t, buf.String(), "more")
}

func TestPrintMetrics_NoDatabase(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Telemetry.Path = filepath.Join(t.TempDir(), "absent.db")
	buf := &bytes.Buffer{}

	err := printMetrics(context.Background(), buf, t.TempDir(), cfg)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no query telemetry recorded yet")
}

func TestPrintMetrics_Snapshot(t *testing.T) {
	// Given: two recorded queries, one that found nothing
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "telemetry.db")

	rec, err := telemetry.Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.RecordSearch(ctx, telemetry.SearchRecord{
		Mode: "regex", Query: "hits", Matches: 3, Duration: 5 * time.Millisecond,
	}))
	require.NoError(t, rec.RecordSearch(ctx, telemetry.SearchRecord{
		Mode: "hybrid", Query: "nothing here", Matches: 0, Duration: 80 * time.Millisecond,
	}))
	require.NoError(t, rec.Close())

	cfg := config.NewConfig()
	cfg.Telemetry.Path = path
	buf := &bytes.Buffer{}

	// When: rendering the metrics section
	err = printMetrics(ctx, buf, t.TempDir(), cfg)

	// Then: totals, modes, latency, and the lost query all show
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "queries: 2 total")
	assert.Contains(t, out, "50% with no results")
	assert.Contains(t, out, "regex=1")
	assert.Contains(t, out, "hybrid=1")
	assert.Contains(t, out, "p10=1")
	assert.Contains(t, out, "p100=1")
	assert.Contains(t, out, `"nothing here"`)
}
