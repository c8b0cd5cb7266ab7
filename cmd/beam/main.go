// Package main provides the entry point for the beam CLI tool.
package main

import (
	"github.com/noodle630/beam/cmd/beam/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
