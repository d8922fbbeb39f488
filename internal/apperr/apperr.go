// Package apperr defines the error taxonomy shared by the service core and
// the transport layer. Handlers map these sentinels to HTTP status codes;
// everything else wraps them with %w so errors.Is keeps working.
package apperr

import "errors"

var (
	// ErrNotFound covers both a genuinely missing entity and the compound
	// (id, owner) lookups that intentionally hide whether a row exists.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is raised where ownership failure is surfaced explicitly.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidArgument marks malformed or missing required input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidStateTransition marks a state machine precondition violation.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrConflict is reserved for duplicate-submission cases.
	ErrConflict = errors.New("conflict")
)
