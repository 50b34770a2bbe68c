package pricing

import (
	"errors"
	"fmt"
)

// FailureKind classifies pricing pipeline failures so callers can react
// differently to an unpriceable vehicle than to a broken upstream.
type FailureKind int

const (
	// FailureTransport is a network failure or non-2xx/non-401 relay response.
	FailureTransport FailureKind = iota
	// FailureAuth is an upstream 401. Never retried.
	FailureAuth
	// FailureProtocol is a response shape that cannot be reconciled, e.g. a
	// successful submission with no pollable valuation id.
	FailureProtocol
	// FailureExhausted means the poll budget ran out without a positive
	// offer. This is a normal outcome, not a bug.
	FailureExhausted
	// FailureDeadline means the overall valuation deadline elapsed.
	FailureDeadline
)

// String returns the wire-stable name of the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport_error"
	case FailureAuth:
		return "authentication_error"
	case FailureProtocol:
		return "protocol_violation"
	case FailureExhausted:
		return "pricing_exhausted"
	case FailureDeadline:
		return "deadline_exceeded"
	default:
		return "unknown"
	}
}

// Error is a typed pricing pipeline failure.
type Error struct {
	Kind    FailureKind
	Status  int    // HTTP status from the relay, when one was received
	Message string
	Err     error

	// DiagnosticOffer carries the secondary (automatic) offer found after
	// exhaustion, for support tooling only. It never satisfies a valuation.
	DiagnosticOffer float64
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (FailureKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a pricing error of the given kind.
func IsKind(err error, kind FailureKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
