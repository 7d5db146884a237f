// Command blobnom-cli is the command-line client for Blobnom.
//
// It talks RESP to the cache port for data commands and HTTP to the
// admin port for stats and backup. Run with no arguments for the
// interactive REPL.
package main

import (
	"os"

	"github.com/iamd3vil/blobnom/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
