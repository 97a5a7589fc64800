// Package errors provides structured error handling for quarry.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Validation errors (queries, paths, model names)
//   - 2XX: Filesystem errors
//   - 3XX: Index and sidecar store errors
//   - 4XX: Embedding and network errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryIndex indicates index and sidecar store errors.
	CategoryIndex Category = "INDEX"
	// CategoryEmbedding indicates embedding and network errors.
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Validation errors (100-199)
	ErrCodeInvalidQuery   = "ERR_101_INVALID_QUERY"
	ErrCodeInvalidPath    = "ERR_102_INVALID_PATH"
	ErrCodeModelNotFound  = "ERR_103_MODEL_NOT_FOUND"
	ErrCodeInvalidPattern = "ERR_104_INVALID_PATTERN"
	ErrCodeInvalidOptions = "ERR_105_INVALID_OPTIONS"

	// Filesystem errors (200-299)
	ErrCodeFileNotFound = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFileAccess   = "ERR_202_FILE_ACCESS"
	ErrCodeFileTooLarge = "ERR_203_FILE_TOO_LARGE"
	ErrCodeDiskFull     = "ERR_204_DISK_FULL"

	// Index and store errors (300-399)
	ErrCodeNotIndexed     = "ERR_301_NOT_INDEXED"
	ErrCodeSidecarCorrupt = "ERR_302_SIDECAR_CORRUPT"
	ErrCodeIndexingFailed = "ERR_303_INDEXING_FAILED"
	ErrCodeIndexLocked    = "ERR_304_INDEX_LOCKED"

	// Embedding and network errors (400-499)
	ErrCodeEmbeddingUnavailable = "ERR_401_EMBEDDING_UNAVAILABLE"
	ErrCodeNetworkTimeout       = "ERR_402_NETWORK_TIMEOUT"
	ErrCodeModelPull            = "ERR_403_MODEL_PULL"
	ErrCodeDimensionMismatch    = "ERR_404_DIMENSION_MISMATCH"
	ErrCodeEmbedderUnreachable  = "ERR_405_EMBEDDER_UNREACHABLE"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeSearchFailed   = "ERR_502_SEARCH_FAILED"
	ErrCodeChunkingFailed = "ERR_503_CHUNKING_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract the numeric portion (e.g., "301" from "ERR_301_NOT_INDEXED")
	switch code[4] {
	case '1':
		return CategoryValidation
	case '2':
		return CategoryIO
	case '3':
		return CategoryIndex
	case '4':
		return CategoryEmbedding
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeDiskFull:
		return SeverityFatal
	case ErrCodeEmbeddingUnavailable, ErrCodeSidecarCorrupt:
		// Both degrade the current operation rather than failing it.
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeNetworkTimeout, ErrCodeModelPull, ErrCodeEmbedderUnreachable:
		return true
	default:
		return false
	}
}
