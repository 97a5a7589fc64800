package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

func TestMCPError_Error(t *testing.T) {
	err := &MCPError{Code: ErrCodeInvalidParams, Message: "bad input"}
	assert.Equal(t, "MCP error -32602: bad input", err.Error())
}

func TestMapError_Nil(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError_PassesThroughMCPError(t *testing.T) {
	orig := NewInvalidParamsError("query must not be empty")
	mapped := MapError(orig)
	assert.Same(t, orig, mapped)
}

func TestMapError_QuarryErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "not indexed",
			err:  qerrors.NotIndexed("/tmp/project"),
			code: ErrCodeNotIndexed,
		},
		{
			name: "file not found",
			err:  qerrors.New(qerrors.ErrCodeFileNotFound, "file not found: main.go", nil),
			code: ErrCodeFileNotFound,
		},
		{
			name: "file too large",
			err:  qerrors.New(qerrors.ErrCodeFileTooLarge, "file too large", nil),
			code: ErrCodeFileTooLarge,
		},
		{
			name: "network timeout",
			err:  qerrors.NetworkError("embed", true, errors.New("dial tcp: timeout")),
			code: ErrCodeTimeout,
		},
		{
			name: "validation category",
			err:  qerrors.New(qerrors.ErrCodeInvalidQuery, "query is empty", nil),
			code: ErrCodeInvalidParams,
		},
		{
			name: "embedding category",
			err:  qerrors.EmbeddingUnavailable("ollama is down", nil),
			code: ErrCodeEmbeddingUnavailable,
		},
		{
			name: "index category",
			err:  qerrors.New(qerrors.ErrCodeSidecarCorrupt, "sidecar unreadable", nil),
			code: ErrCodeNotIndexed,
		},
		{
			name: "internal category",
			err:  qerrors.New(qerrors.ErrCodeSearchFailed, "search blew up", nil),
			code: ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapError(tt.err)
			require.NotNil(t, mapped)
			assert.Equal(t, tt.code, mapped.Code)
		})
	}
}

func TestMapError_IncludesSuggestion(t *testing.T) {
	mapped := MapError(qerrors.NotIndexed("/tmp/project"))
	require.NotNil(t, mapped)
	assert.Contains(t, mapped.Message, "no index found")
	assert.Contains(t, mapped.Message, "run 'quarry index' first")
}

func TestMapError_UnwrapsWrappedQuarryError(t *testing.T) {
	wrapped := fmt.Errorf("searching: %w", qerrors.NotIndexed("/tmp/project"))
	mapped := MapError(wrapped)
	require.NotNil(t, mapped)
	assert.Equal(t, ErrCodeNotIndexed, mapped.Code)
}

func TestMapError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, MapError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeTimeout, MapError(context.Canceled).Code)
}

func TestMapError_UnknownErrorIsInternal(t *testing.T) {
	mapped := MapError(errors.New("boom"))
	require.NotNil(t, mapped)
	assert.Equal(t, ErrCodeInternalError, mapped.Code)
	assert.Equal(t, "Internal server error.", mapped.Message)
}

func TestNewInvalidParamsError(t *testing.T) {
	err := NewInvalidParamsError("threshold must be between 0 and 1")
	assert.Equal(t, ErrCodeInvalidParams, err.Code)
	assert.Equal(t, "threshold must be between 0 and 1", err.Message)
}
