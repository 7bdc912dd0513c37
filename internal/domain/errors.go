package domain

import (
	"errors"
	"fmt"
)

// ErrorKind identifies a failure category that callers map to a transport status.
type ErrorKind string

const (
	KindAlreadyHeld          ErrorKind = "ALREADY_HELD"
	KindAlreadyBooked        ErrorKind = "ALREADY_BOOKED"
	KindHoldExpired          ErrorKind = "HOLD_EXPIRED"
	KindUnauthorized         ErrorKind = "UNAUTHORIZED"
	KindInvalidTransition    ErrorKind = "INVALID_TRANSITION"
	KindIdempotencyKeyReused ErrorKind = "IDEMPOTENCY_KEY_REUSED"
	KindRateLimited          ErrorKind = "RATE_LIMITED"
	KindLockTimeout          ErrorKind = "LOCK_TIMEOUT"
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindPaymentFailed        ErrorKind = "PAYMENT_FAILED"
	KindDuplicate            ErrorKind = "DUPLICATE"
	KindInvalidArgument      ErrorKind = "INVALID_ARGUMENT"
	KindUnexpected           ErrorKind = "UNEXPECTED"
)

// Error is the single error type returned by the reservation workflows.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error of the given kind that keeps cause in the chain.
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
// Errors that carry no kind are reported as KindUnexpected; nil has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
