package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Source errors.

	// ErrAuthFailed indicates a source rejected its credentials. The source
	// is skipped for the run; other sources are unaffected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrMissingCredentials indicates a source has no credential pair
	// configured. The source is skipped with a warning, not an error.
	ErrMissingCredentials = errors.New("credentials not configured")

	// ErrSourceTimeout indicates a source exceeded the per-run deadline and
	// was abandoned.
	ErrSourceTimeout = errors.New("source timed out")

	// Run errors.

	// ErrRunInProgress indicates a pipeline run is already executing.
	ErrRunInProgress = errors.New("run in progress")
)
