package errors

import (
	"fmt"
	"strings"
)

// QuarryError is the structured error type used at package boundaries.
// It carries enough context for error handling, logging, and user display.
type QuarryError struct {
	// Code is the unique error code (e.g., "ERR_301_NOT_INDEXED").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Validation, IO, Index, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *QuarryError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *QuarryError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with QuarryError.
func (e *QuarryError) Is(target error) bool {
	if t, ok := target.(*QuarryError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *QuarryError) WithDetail(key, value string) *QuarryError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *QuarryError) WithSuggestion(suggestion string) *QuarryError {
	e.Suggestion = suggestion
	return e
}

// New creates a new QuarryError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *QuarryError {
	return &QuarryError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a QuarryError from an existing error.
// The error's message becomes the QuarryError message.
func Wrap(code string, err error) *QuarryError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// IndexingFailed reports that one file could not be indexed. The walk
// continues past it; the error is recorded in the run's failure list.
func IndexingFailed(path, reason string, cause error) *QuarryError {
	return New(ErrCodeIndexingFailed, fmt.Sprintf("indexing %s failed: %s", path, reason), cause).
		WithDetail("path", path).
		WithDetail("reason", reason)
}

// EmbeddingUnavailable reports that embeddings cannot be computed.
// Callers degrade to structure-only indexing rather than aborting.
func EmbeddingUnavailable(reason string, cause error) *QuarryError {
	return New(ErrCodeEmbeddingUnavailable, fmt.Sprintf("embeddings unavailable: %s", reason), cause).
		WithDetail("reason", reason).
		WithSuggestion("semantic search is disabled for affected files; check the embedding backend and re-run 'quarry index'")
}

// ModelNotFound reports a model name outside the supported set.
func ModelNotFound(model string, available []string) *QuarryError {
	return New(ErrCodeModelNotFound, fmt.Sprintf("unknown embedding model %q", model), nil).
		WithDetail("model", model).
		WithDetail("available", strings.Join(available, ", ")).
		WithSuggestion(fmt.Sprintf("valid models: %s", strings.Join(available, ", ")))
}

// FileAccessError reports a failed filesystem operation on a path.
func FileAccessError(path, operation string, cause error) *QuarryError {
	return New(ErrCodeFileAccess, fmt.Sprintf("%s %s failed", operation, path), cause).
		WithDetail("path", path).
		WithDetail("operation", operation)
}

// NetworkError reports a failure at a network-backed boundary.
// retryPossible overrides the code-derived retryability.
func NetworkError(operation string, retryPossible bool, cause error) *QuarryError {
	e := New(ErrCodeNetworkTimeout, fmt.Sprintf("network operation %s failed", operation), cause).
		WithDetail("operation", operation)
	e.Retryable = retryPossible
	return e
}

// NotIndexed reports that a search mode requires an index that does not
// exist (or holds no usable entries) under the given root.
func NotIndexed(root string) *QuarryError {
	return New(ErrCodeNotIndexed, fmt.Sprintf("no index found under %s", root), nil).
		WithDetail("root", root).
		WithSuggestion("run 'quarry index' first")
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a QuarryError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if qe, ok := err.(*QuarryError); ok {
		return qe.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if qe, ok := err.(*QuarryError); ok {
		return qe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a QuarryError.
// Returns empty string if not a QuarryError.
func GetCode(err error) string {
	if qe, ok := err.(*QuarryError); ok {
		return qe.Code
	}
	return ""
}

// GetCategory extracts the category from a QuarryError.
// Returns empty string if not a QuarryError.
func GetCategory(err error) Category {
	if qe, ok := err.(*QuarryError); ok {
		return qe.Category
	}
	return ""
}
