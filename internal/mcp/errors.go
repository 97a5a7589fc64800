package mcp

import (
	"context"
	"errors"
	"fmt"

	qerrors "github.com/quarrysearch/quarry/internal/errors"
)

// Custom MCP error codes for quarry.
const (
	// ErrCodeNotIndexed indicates no index exists for the project.
	ErrCodeNotIndexed = -32001

	// ErrCodeEmbeddingUnavailable indicates the embedding backend failed.
	ErrCodeEmbeddingUnavailable = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a file no longer exists on disk.
	ErrCodeFileNotFound = -32004

	// ErrCodeFileTooLarge indicates a file exceeds the resource size cap.
	ErrCodeFileTooLarge = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP protocol errors. Errors that
// are already MCPError pass through unchanged.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var qe *qerrors.QuarryError
	if errors.As(err, &qe) {
		return mapQuarryError(qe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// mapQuarryError picks the MCP code from the quarry error code where a
// direct mapping exists, falling back to the category.
func mapQuarryError(qe *qerrors.QuarryError) *MCPError {
	message := qe.Message
	if qe.Suggestion != "" {
		message = fmt.Sprintf("%s; %s", qe.Message, qe.Suggestion)
	}

	switch qe.Code {
	case qerrors.ErrCodeNotIndexed:
		return &MCPError{Code: ErrCodeNotIndexed, Message: message}
	case qerrors.ErrCodeFileNotFound:
		return &MCPError{Code: ErrCodeFileNotFound, Message: message}
	case qerrors.ErrCodeFileTooLarge:
		return &MCPError{Code: ErrCodeFileTooLarge, Message: message}
	case qerrors.ErrCodeNetworkTimeout:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	}

	switch qe.Category {
	case qerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case qerrors.CategoryEmbedding:
		return &MCPError{Code: ErrCodeEmbeddingUnavailable, Message: message}
	case qerrors.CategoryIndex:
		return &MCPError{Code: ErrCodeNotIndexed, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
