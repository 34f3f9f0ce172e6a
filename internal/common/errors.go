// Package common defines shared sentinel errors and small helpers used across
// the storage, service and CLI layers of snipkeeper. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")

	// Validation of user supplied values (names, colors, entity types).
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrUnknownSession     = errors.New("unknown session")
	ErrSessionExpired     = errors.New("session expired")
	ErrAlreadyInitialized = errors.New("master credential already set")
	ErrNotInitialized     = errors.New("master credential not set")

	// Startup and degraded-mode errors.
	ErrEncryptionKeyMissing = errors.New("encryption key missing")
	ErrFullTextUnavailable  = errors.New("full-text index unavailable")
)
