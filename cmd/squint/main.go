// Package main provides the CLI entry point for squint.
package main

import (
	"os"

	"github.com/leapstack-labs/squint/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
