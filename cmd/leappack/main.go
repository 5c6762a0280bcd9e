// Package main provides the CLI for the LeapPack module bundler.
package main

import (
	"os"

	"github.com/leapstack-labs/leappack/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
