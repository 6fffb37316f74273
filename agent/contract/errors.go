package contract

import "errors"

var (
	// Per-tier failures, recovered locally by registry escalation.
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrBackendError       = errors.New("backend returned an invalid response")

	// Fatal for the request: every configured tier at or above the
	// requested one failed. The only error surfaced to the caller.
	ErrAllBackendsUnavailable = errors.New("all backends unavailable")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
)
