// Package command provides CLI command definitions for blobnom-cli.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/iamd3vil/blobnom/internal/cli/output"
	"github.com/iamd3vil/blobnom/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show client build information",
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	info := buildinfo.Get()

	if c.String("output") == string(output.FormatJSON) {
		return (&output.JSONFormatter{}).Format(os.Stdout, info)
	}

	fmt.Printf("blobnom-cli %s\n", info.Version)
	fmt.Printf("  commit:     %s\n", info.Commit)
	fmt.Printf("  built:      %s\n", info.BuildTime)
	fmt.Printf("  go version: %s\n", info.GoVersion)
	return nil
}
