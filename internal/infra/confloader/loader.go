// Package confloader loads the Blobnom server configuration.
package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix scopes the environment overlay.
const DefaultEnvPrefix = "BLOBNOM_"

// Loader merges configuration sources into one koanf tree. Later
// sources win: the YAML file overrides the defaults the caller put in
// the target struct, and BLOBNOM_* environment variables override the
// file.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to load. Without it only the
// environment applies.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the configured sources and unmarshals the merged tree
// into target. Fields the sources do not mention keep their values, so
// callers pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("confloader: read %s: %w", l.filePath, err)
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return fmt.Errorf("confloader: read environment: %w", err)
	}

	if err := l.k.Unmarshal("", target); err != nil {
		return fmt.Errorf("confloader: unmarshal: %w", err)
	}
	return nil
}

// envKey maps an environment variable to its config key:
// BLOBNOM_SNAPSHOT_INTERVAL becomes snapshot.interval.
func (l *Loader) envKey(name string) string {
	key := strings.TrimPrefix(name, l.envPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}
