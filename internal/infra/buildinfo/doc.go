// Package buildinfo exposes the version identity stamped into the binary.
//
// Release builds stamp Version, Commit and BuildTime through ldflags;
// unstamped binaries report "dev" and fall back to the VCS revision Go
// embeds at build time. The INFO command, the version subcommand and
// the admin API all report through Get.
//
// @design DS-0501
package buildinfo
