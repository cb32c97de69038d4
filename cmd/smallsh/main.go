// Package main is the entry point for smallsh.
package main

import (
	"os"

	"smallsh/internal/launch"
)

func main() {
	// Children are started by re-executing this binary; they never reach cobra.
	if launch.IsChild(os.Args) {
		os.Exit(launch.ChildMain(os.Args[1:]))
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
