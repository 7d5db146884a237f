// Package domain defines the core domain models for Blobnom.
package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error carrying a structured code.
//
// Codes follow BN-<AREA>-<NNNN>; the leading digit of NNNN mirrors the
// HTTP status family the admin API maps the error to.
//
// @req RQ-0104
// @design DS-0104
type DomainError struct {
	Code    string // Structured code, e.g. "BN-CACHE-4040"
	Message string // Human-readable message
	Details string // Optional context appended to the message
	Cause   error  // Wrapped error, if any
}

func (e *DomainError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code, so copies made by
// WithDetails and WithCause compare equal to their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// NewDomainError creates a DomainError with the given code and message.
//
// @design DS-0104
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of the error carrying extra context.
// The receiver is left untouched, so sentinels stay clean.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError reports whether err carries a DomainError anywhere in
// its chain. A non-empty code restricts the match to that code.
//
// @design DS-0104
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode returns err's code, or "" for non-domain errors.
//
// @design DS-0104
func GetErrorCode(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return ""
	}
	return de.Code
}

// ============================================================================
// Cache Errors (CACHE)
// ============================================================================

var (
	// ErrKeyNotFound indicates no blob is stored under the requested key.
	ErrKeyNotFound = NewDomainError("BN-CACHE-4040", "key not found")

	// ErrKeyEmpty indicates an empty key was supplied.
	ErrKeyEmpty = NewDomainError("BN-CACHE-4000", "key must not be empty")

	// ErrKeyTooLong indicates the key exceeds MaxKeyLength.
	ErrKeyTooLong = NewDomainError("BN-CACHE-4220", "key too long")

	// ErrValueTooLarge indicates the value exceeds the configured maximum.
	ErrValueTooLarge = NewDomainError("BN-CACHE-4130", "value too large")
)

// ============================================================================
// Protocol Errors (PROTO)
// ============================================================================

var (
	// ErrProtocolViolation indicates a malformed RESP frame or command.
	ErrProtocolViolation = NewDomainError("BN-PROTO-4000", "protocol violation")
)

// ============================================================================
// Storage Errors (STORE)
// ============================================================================

var (
	// ErrStorageError indicates a backend failure.
	ErrStorageError = NewDomainError("BN-STORE-5000", "storage error")

	// ErrStorageClosed indicates the storage engine has been shut down.
	ErrStorageClosed = NewDomainError("BN-STORE-5030", "storage closed")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("BN-SYS-5000", "internal server error")

	// ErrRateLimited indicates too many requests from one client.
	ErrRateLimited = NewDomainError("BN-RATE-4290", "too many requests")
)

// ============================================================================
// Snapshot Errors (SNAP)
// ============================================================================

var (
	// ErrSnapshotFailed indicates a snapshot could not be written.
	ErrSnapshotFailed = NewDomainError("BN-SNAP-5010", "snapshot failed")

	// ErrSnapshotUnsupported indicates the active backend does not snapshot.
	ErrSnapshotUnsupported = NewDomainError("BN-SNAP-5011", "backend does not support snapshots")
)

// ============================================================================
// Config Errors (CONF)
// ============================================================================

var (
	// ErrInvalidConfig indicates the configuration failed verification.
	ErrInvalidConfig = NewDomainError("BN-CONF-4001", "invalid configuration")
)
