package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quarrysearch/quarry/internal/embed"
)

func TestChecker_CheckModel_EmptySelectsDefault(t *testing.T) {
	result := New().CheckModel()

	assert.Equal(t, "embedder_model", result.Name)
	assert.True(t, result.Required)
	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, embed.DefaultModel)
	assert.Contains(t, result.Message, "768 dims")
}

func TestChecker_CheckModel_Static(t *testing.T) {
	result := New(WithModel("static")).CheckModel()

	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "offline hash embedder")
}

func TestChecker_CheckModel_None(t *testing.T) {
	result := New(WithModel("none")).CheckModel()

	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, "structure-only")
}

func TestChecker_CheckModel_Unknown(t *testing.T) {
	result := New(WithModel("gpt-12")).CheckModel()

	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.Required)
	assert.Contains(t, result.Message, `"gpt-12"`)
	assert.Contains(t, result.Details, "static")
	assert.Contains(t, result.Details, embed.DefaultModel)
}

func TestChecker_CheckBackend_BuiltinProvidersSkipProbe(t *testing.T) {
	for _, model := range []string{"static", "none"} {
		t.Run(model, func(t *testing.T) {
			result := New(WithModel(model)).CheckBackend(context.Background())

			assert.Equal(t, "embedder_backend", result.Name)
			assert.False(t, result.Required)
			assert.Equal(t, StatusPass, result.Status)
			assert.Contains(t, result.Message, "no backend needed")
		})
	}
}

func TestChecker_CheckBackend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	result := New(WithHost(host)).CheckBackend(context.Background())

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "unreachable")
	assert.Contains(t, result.Message, host)
	assert.Contains(t, result.Details, "--model static")
}

func TestChecker_CheckBackend_ModelNotInstalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"models":[{"name":"llama3:latest"}]}`)
	}))
	defer srv.Close()

	result := New(WithHost(srv.URL)).CheckBackend(context.Background())

	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "not installed")
	assert.Contains(t, result.Details, "quarry models pull "+embed.DefaultModel)
}

func TestChecker_CheckBackend_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"models":[{"name":"nomic-embed-text:latest"}]}`)
	}))
	defer srv.Close()

	result := New(WithHost(srv.URL)).CheckBackend(context.Background())

	assert.Equal(t, StatusPass, result.Status)
	assert.Contains(t, result.Message, srv.URL)
	assert.Contains(t, result.Message, "nomic-embed-text")
}
