package dispatch

import (
	"errors"
	"fmt"
	"time"
)

// FailureClass tells the dispatcher how to treat a delivery error.
type FailureClass int

const (
	// Transient failures are retried with exponential backoff.
	Transient FailureClass = iota
	// RateLimited failures are retried no earlier than the reported
	// Retry-After interval.
	RateLimited
	// Permanent failures are never retried.
	Permanent
)

func (c FailureClass) String() string {
	switch c {
	case Transient:
		return "transient"
	case RateLimited:
		return "rate_limited"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// TransportError carries the failure class from a transport back to the
// dispatcher. Transports wrap their errors in one of these; anything else
// is treated as transient.
type TransportError struct {
	Class      FailureClass
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Class, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classify extracts the failure class and retry floor from err.
func classify(err error) (FailureClass, time.Duration) {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class, te.RetryAfter
	}
	return Transient, 0
}
