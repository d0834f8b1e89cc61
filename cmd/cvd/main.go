// Package main is the entry point for the cvd CLI tool.
package main

import (
	"os"

	"github.com/aidanlsb/corvid/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
