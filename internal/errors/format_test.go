package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_ShowsMessageAndSuggestion(t *testing.T) {
	err := NotIndexed("/repo")

	out := FormatForCLI(err)

	assert.Contains(t, out, "quarry: no index found under /repo")
	assert.Contains(t, out, "run 'quarry index' first")
	assert.NotContains(t, out, "ERR_301", "codes are for logs, not the terminal")
}

func TestFormatForCLI_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("searching: %w", NotIndexed("/repo"))

	out := FormatForCLI(wrapped)

	assert.Contains(t, out, "quarry: no index found under /repo")
}

func TestFormatForCLI_PlainError(t *testing.T) {
	assert.Equal(t, "quarry: boom\n", FormatForCLI(errors.New("boom")))
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	err := ModelNotFound("bogus", []string{"static"}).WithDetail("extra", "x")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, ErrCodeModelNotFound, decoded["code"])
	assert.Equal(t, string(CategoryValidation), decoded["category"])
	assert.Equal(t, false, decoded["retryable"])

	details, ok := decoded["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bogus", details["model"])
}

func TestFormatForLog_ProducesStructuredAttrs(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NetworkError("embed", true, cause)

	attrs := FormatForLog(err)

	assert.Equal(t, ErrCodeNetworkTimeout, attrs["error_code"])
	assert.Equal(t, true, attrs["retryable"])
	assert.Equal(t, cause.Error(), attrs["cause"])
	assert.Equal(t, "embed", attrs["detail_operation"])
}

func TestFormatForLog_PlainErrorFallsBack(t *testing.T) {
	attrs := FormatForLog(errors.New("plain"))

	assert.Equal(t, "plain", attrs["error"])
	assert.NotContains(t, attrs, "error_code")
}
