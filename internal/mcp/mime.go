package mcp

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps file extensions to MIME types for resource listings.
var mimeTypes = map[string]string{
	// Go
	".go":  "text/x-go",
	".mod": "text/x-go.mod",
	".sum": "text/x-go.sum",

	// TypeScript/JavaScript
	".ts":  "text/typescript",
	".tsx": "text/typescript",
	".js":  "text/javascript",
	".jsx": "text/javascript",
	".mjs": "text/javascript",

	// Python
	".py": "text/x-python",

	// Web
	".html": "text/html",
	".css":  "text/css",

	// Data
	".json": "application/json",
	".yaml": "text/x-yaml",
	".yml":  "text/x-yaml",
	".toml": "text/x-toml",
	".xml":  "text/xml",

	// Documentation
	".md":  "text/markdown",
	".mdx": "text/markdown",
	".txt": "text/plain",
	".rst": "text/x-rst",

	// Shell
	".sh":   "text/x-sh",
	".bash": "text/x-sh",

	// Misc source
	".sql":  "text/x-sql",
	".c":    "text/x-c",
	".h":    "text/x-c",
	".cpp":  "text/x-c++",
	".java": "text/x-java",
	".rs":   "text/x-rust",
	".rb":   "text/x-ruby",
}

// specialFilenames maps extensionless filenames to MIME types.
var specialFilenames = map[string]string{
	"Dockerfile": "text/x-dockerfile",
	"Makefile":   "text/x-makefile",
	"Gemfile":    "text/x-ruby",
	"Rakefile":   "text/x-ruby",
}

// MimeTypeForPath returns the MIME type for a file path. Special
// filenames win over extensions; unknown types fall back to text/plain.
func MimeTypeForPath(path string) string {
	if mime, ok := specialFilenames[filepath.Base(path)]; ok {
		return mime
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if mime, ok := mimeTypes[ext]; ok {
			return mime
		}
	}

	return "text/plain"
}
