package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quarrysearch/quarry/internal/store"
)

// MaxResourceSize is the maximum file size served as a resource (1MB).
const MaxResourceSize = 1024 * 1024

// maxFileResources bounds the resource listing for very large projects.
const maxFileResources = 10000

// telemetryURI is the URI of the usage metrics resource.
const telemetryURI = "quarry://telemetry"

// RegisterResources exposes every indexed file as a read-only MCP
// resource, plus the telemetry snapshot when a recorder is configured.
// Call after NewServer and before Serve.
func (s *Server) RegisterResources() error {
	paths, err := store.List(s.root)
	if err != nil {
		return fmt.Errorf("list indexed files: %w", err)
	}
	if len(paths) > maxFileResources {
		paths = paths[:maxFileResources]
	}

	for _, rel := range paths {
		s.registerFileResource(rel)
	}
	if s.recorder != nil {
		s.registerTelemetryResource()
	}

	s.logger.Info("mcp resources registered", "count", len(paths))
	return nil
}

func (s *Server) registerFileResource(rel string) {
	desc := rel
	if info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel))); err == nil {
		desc = fmt.Sprintf("%s (%s)", rel, humanSize(info.Size()))
	}

	s.mcp.AddResource(
		&mcp.Resource{
			Name:        filepath.Base(rel),
			URI:         "file://" + rel,
			Description: desc,
			MIMEType:    MimeTypeForPath(rel),
		},
		s.makeFileHandler(rel),
	)
}

// makeFileHandler creates a read handler for one indexed file.
func (s *Server) makeFileHandler(rel string) mcp.ResourceHandler {
	return func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readFileResource(rel)
	}
}

// readFileResource reads live file content with path and size validation.
func (s *Server) readFileResource(rel string) (*mcp.ReadResourceResult, error) {
	if !isValidPath(rel) {
		return nil, NewInvalidParamsError(fmt.Sprintf("invalid path: %s", rel))
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(rel))

	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MCPError{
				Code:    ErrCodeFileNotFound,
				Message: fmt.Sprintf("file not found: %s", rel),
			}
		}
		return nil, MapError(err)
	}

	if info.Size() > MaxResourceSize {
		return nil, &MCPError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), MaxResourceSize),
		}
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, MapError(err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      "file://" + rel,
				MIMEType: MimeTypeForPath(rel),
				Text:     string(content),
			},
		},
	}, nil
}

func (s *Server) registerTelemetryResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "telemetry",
			URI:         telemetryURI,
			Description: "Local search usage metrics: mode counts, latency buckets, zero-result queries",
			MIMEType:    "application/json",
		},
		s.makeTelemetryHandler(),
	)
}

func (s *Server) makeTelemetryHandler() mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		snapshot, err := s.recorder.Snapshot(ctx, 20)
		if err != nil {
			return nil, MapError(err)
		}

		content, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      telemetryURI,
					MIMEType: "application/json",
					Text:     string(content),
				},
			},
		}, nil
	}
}

// isValidPath rejects absolute paths and path traversal attempts.
func isValidPath(path string) bool {
	if path == "" {
		return false
	}

	if filepath.IsAbs(path) {
		return false
	}

	// Windows drive-letter paths.
	if len(path) >= 2 && path[1] == ':' {
		return false
	}

	cleaned := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(cleaned, "..") {
		return false
	}
	for _, part := range strings.Split(cleaned, string(filepath.Separator)) {
		if part == ".." {
			return false
		}
	}

	return true
}

// humanSize formats bytes as a human-readable string.
func humanSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
