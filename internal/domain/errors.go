package domain

import "errors"

var (
	// ErrGeneratorTimeout marks a single generator call that exceeded its
	// deadline. The orchestrator treats it as a failure of the current
	// iteration, never as grounds for a silent retry.
	ErrGeneratorTimeout = errors.New("generator call timed out")

	// ErrGeneratorResponse marks a malformed or unparseable generator
	// response. The contradiction scanner absorbs it per pair; the teacher
	// and student fall back to templates.
	ErrGeneratorResponse = errors.New("invalid generator response")

	// ErrInvalidConfig is returned at session start, before any generator
	// call is made.
	ErrInvalidConfig = errors.New("invalid soar configuration")

	// ErrDisabled is returned when Run is called with Enabled=false.
	ErrDisabled = errors.New("soar is disabled")

	// ErrEmbeddingUnavailable is returned by similarity lookups when no
	// embedding client is configured. Session recording degrades silently
	// without one; a lookup cannot.
	ErrEmbeddingUnavailable = errors.New("embedding client not configured")
)
