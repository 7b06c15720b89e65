package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the core. Callers match them with errors.Is.
var (
	// ErrValidation rejects input before any store mutation.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound means the targeted record or tag does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is a duplicate identity. Imports report it as a soft success.
	ErrConflict = errors.New("conflict")
	// ErrStorageContention means lock-class retries were exhausted.
	ErrStorageContention = errors.New("storage contention")
	// ErrEnrichmentUnavailable means a remote lookup or download failed or timed out.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	// ErrPersistenceIO is a non-retryable storage failure.
	ErrPersistenceIO = errors.New("persistence i/o failure")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
