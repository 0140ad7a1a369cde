//go:build tools

package tools

// This file pins CLI tool dependencies so `go run` picks up the same
// versions across machines.

import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
