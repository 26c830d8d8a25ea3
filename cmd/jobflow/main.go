// Package main provides the CLI entry point for jobflow.
package main

import (
	"os"

	"github.com/leapstack-labs/jobflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
