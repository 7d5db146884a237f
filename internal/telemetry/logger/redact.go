// Package logger provides structured logging for Blobnom.
package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
//
// The bare attribute "key" is deliberately NOT matched: cache keys are
// routine log material. The "_key" pattern catches master_key,
// encryption_key, private_key and friends.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"credential",
	"bearer",
	"_key",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// hexKeyLength is the length of a hex-encoded 32-byte key.
const hexKeyLength = 64

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if !strings.Contains(keyLower, pattern) {
				continue
			}
			if strVal == "" {
				break
			}
			// Raw key material keeps a recognizable stub so operators
			// can still match it against a fingerprint.
			if isHexKey(strVal) {
				return slog.String(a.Key, maskHex(strVal))
			}
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively.
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// maskHex partially masks hex key material: first 4 + "..." + last 4.
func maskHex(value string) string {
	if len(value) < 12 {
		return redactedValue
	}
	return value[:4] + "..." + value[len(value)-4:]
}

// isHexKey reports whether a value looks like a hex-encoded 32-byte key.
func isHexKey(value string) bool {
	if len(value) != hexKeyLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// RedactString manually redacts a string value.
// Use this when a value must be scrubbed before logging.
func RedactString(value string) string {
	if isHexKey(value) {
		return maskHex(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
