package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotReady indicates the pipeline was invoked before the evidence
	// index and catalog finished initialising.
	ErrNotReady = errors.New("system not initialized")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)
