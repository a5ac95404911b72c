// Package main provides the leapmap CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapmap/internal/cli"
)

// Set at build time via -ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if commit != "" {
		cli.GitCommit = commit
	}
	if date != "" {
		cli.BuildDate = date
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
