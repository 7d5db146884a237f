// Package confloader loads the Blobnom server configuration.
//
// Loader merges a YAML config file with a BLOBNOM_* environment
// overlay on koanf and unmarshals the result into the config struct.
// Precedence, highest first:
//
//  1. Environment variables (BLOBNOM_SECTION_KEY)
//  2. The configuration file
//  3. Defaults pre-filled in the target struct
//
// Watcher delivers file-change callbacks so blobnom-server can apply
// the log level live and announce which changes need a restart.
//
// @design DS-0502
// @adr AD-0501
package confloader
