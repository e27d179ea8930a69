// ABOUTME: Entry point for the sortable CLI
// ABOUTME: Runs the root command and reports errors in red

package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}
