// Package config provides server configuration for Blobnom.
package config

import "strings"

// Sanitize returns a copy of the configuration safe for logging and
// the admin config endpoint, with secret values masked.
func (c *ServerConfig) Sanitize() ServerConfig {
	out := *c
	if out.Snapshot.Passphrase != "" {
		out.Snapshot.Passphrase = maskSecret(out.Snapshot.Passphrase)
	}
	return out
}

// maskSecret masks a secret, keeping at most the first and last two
// characters visible.
func maskSecret(s string) string {
	const keep = 2
	if len(s) <= 2*keep {
		return "****"
	}
	return s[:keep] + strings.Repeat("*", len(s)-2*keep) + s[len(s)-keep:]
}
