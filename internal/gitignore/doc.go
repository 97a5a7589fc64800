// Package gitignore implements the gitignore pattern syntax documented at
// https://git-scm.com/docs/gitignore.
//
// Supported: wildcards (*, ?, **), rooted patterns (/build), negation
// (!important.log), directory-only patterns (build/), and nested gitignore
// files via a per-rule base directory. Matching is thread-safe.
//
// Usage:
//
//	m := gitignore.New()
//	m.AddPattern("*.log")
//	m.AddPattern("!important.log")
//
//	if m.Match("error.log", false) {
//	    // ignored
//	}
//
// For nested gitignore files:
//
//	m.AddFromFile("/path/to/project/.gitignore", "")
//	m.AddFromFile("/path/to/project/src/.gitignore", "src")
package gitignore
