// Package main is the entry point for appshell.
package main

import (
	"fmt"
	"os"

	"appshell/cmd"
	"appshell/exithook"
)

// main is the entry point.
func main() {
	hooks := exithook.Default()
	// Runs the registered shutdowns on return and on panic.
	defer hooks.Guard()

	if err := cmd.NewRootCmd().Execute(); err != nil {
		// os.Exit skips deferred calls.
		hooks.Run()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
