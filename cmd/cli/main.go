// Package main is the entry point for the capwedge CLI.
package main

import (
	"os"

	"capwedge/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
