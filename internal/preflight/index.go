package preflight

import (
	"fmt"
	"strings"

	"github.com/quarrysearch/quarry/internal/store"
)

// CheckIndex inspects the sidecar tree under the project root. A
// missing index is a warning, not a failure: every other command works
// once `quarry index` has run.
func (c *Checker) CheckIndex(root string) CheckResult {
	result := CheckResult{
		Name:     "index",
		Required: false,
	}

	stats, err := store.CollectStats(root)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("cannot read index: %v", err)
		return result
	}

	if stats.Empty() {
		result.Status = StatusWarn
		result.Message = "no index found (run 'quarry index')"
		result.Details = "expected under " + store.DataDir(root)
		return result
	}

	var notes []string
	if stats.Unreadable > 0 {
		notes = append(notes, fmt.Sprintf("%d entries unreadable or from an older schema", stats.Unreadable))
	}
	if n := len(stats.Orphans); n > 0 {
		notes = append(notes, fmt.Sprintf("%d orphaned entries", n))
	}
	if len(stats.Models) > 1 {
		notes = append(notes, fmt.Sprintf("entries from %d different models", len(stats.Models)))
	}

	if len(notes) > 0 {
		result.Status = StatusWarn
		result.Message = strings.Join(notes, ", ")
		result.Details = "the next 'quarry index' run repairs this"
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d files, %d chunks (%s)",
		stats.TotalFiles, stats.TotalChunks, formatBytes(uint64(stats.SizeBytes)))
	return result
}
