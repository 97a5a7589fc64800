// Command quarry is a code-aware search tool: grep when you know the
// exact string, lexical or semantic ranking when you only know the idea.
package main

import (
	"os"

	"github.com/quarrysearch/quarry/cmd/quarry/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
