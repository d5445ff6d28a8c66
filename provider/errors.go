package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a completion service failure.
type Kind string

const (
	// KindTimeout covers deadline and cancellation failures.
	KindTimeout Kind = "timeout"
	// KindUnavailable covers network and upstream API failures.
	KindUnavailable Kind = "unavailable"
	// KindMalformedOutput covers structured responses that failed shape
	// validation. It is a normal error variant, not a catch-all.
	KindMalformedOutput Kind = "malformed_output"
)

// ServiceError is the typed failure every completion call site reports.
// The pipeline absorbs these into stage fallbacks; they never cross a stage
// boundary.
type ServiceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Classify wraps a raw provider error into a ServiceError, distinguishing
// timeouts from general unavailability.
func Classify(op string, err error) *ServiceError {
	kind := KindUnavailable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = KindTimeout
	}
	return &ServiceError{Op: op, Kind: kind, Err: err}
}

// Malformed reports a structured response that did not match the expected shape.
func Malformed(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Kind: KindMalformedOutput, Err: err}
}
