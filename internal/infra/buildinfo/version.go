// Package buildinfo exposes the version identity stamped into the binary.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Stamped by the release build:
//
//	go build -ldflags "\
//	  -X github.com/iamd3vil/blobnom/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/iamd3vil/blobnom/internal/infra/buildinfo.Commit=abc1234 \
//	  -X github.com/iamd3vil/blobnom/internal/infra/buildinfo.BuildTime=2026-08-01T12:00:00Z"
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""

	// GoVersion records the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// Info is the build identity reported by INFO, the version
// subcommand, and the admin API.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get assembles the build identity. When the ldflags stamp is absent
// the commit falls back to the VCS revision Go embedded at build time.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    commit(),
		BuildTime: BuildTime,
		GoVersion: GoVersion,
	}
}

func commit() string {
	if Commit != "" {
		return Commit
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// String renders the one-line form used by banners and --version.
func String() string {
	out := Version
	if c := commit(); c != "unknown" {
		out = fmt.Sprintf("%s (%s)", out, shortRev(c))
	}
	if BuildTime != "" {
		out += " built " + BuildTime
	}
	return out
}

// shortRev abbreviates a full VCS revision the way git log does.
func shortRev(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
