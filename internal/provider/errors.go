package provider

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a provider failure for the engine's propagation policy:
// auth failures are fatal to the run, rate-limit and transient failures are
// retryable with backoff.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindRateLimit
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error wraps a provider failure with its classification and the operation
// that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError classifies err as kind for operation op.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func kindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsRateLimit reports whether err is a quota/rate-limit rejection.
func IsRateLimit(err error) bool { return kindOf(err) == KindRateLimit }

// IsTransient reports whether err is a network or timeout failure.
func IsTransient(err error) bool { return kindOf(err) == KindTransient }

// Retryable reports whether the engine may retry the call with backoff.
// Context cancellation is never retryable; a call-level deadline surfaces as
// a transient provider error before it reaches here.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	k := kindOf(err)
	return k == KindRateLimit || k == KindTransient
}
