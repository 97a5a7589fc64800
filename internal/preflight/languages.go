package preflight

import (
	"strings"

	"github.com/quarrysearch/quarry/internal/chunk"
)

// CheckLanguages reports the grammars available for structural
// chunking. Grammars are compiled in, so the check always passes;
// files outside this set chunk as fixed line windows.
func (c *Checker) CheckLanguages() CheckResult {
	return CheckResult{
		Name:     "languages",
		Required: false,
		Status:   StatusPass,
		Message:  strings.Join(chunk.SupportedLanguages(), ", "),
		Details:  "markdown splits on headings; other files use line windows",
	}
}
