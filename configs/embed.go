// Package configs embeds the default configuration template so
// `quarry init` works in every distribution, source builds and binary
// releases alike.
package configs

import _ "embed"

// DefaultConfig is the commented .quarry.yaml template written by
// `quarry init`. Every value matches the compiled-in default, so a
// fresh file changes nothing until edited.
//
//go:embed default.quarry.yaml
var DefaultConfig []byte
