// Package apperr defines the error taxonomy shared by the analytical services
// and the resilience layer.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidArgument marks bad configuration; fatal to the single call and never retried.
	KindInvalidArgument
	// KindUnauthorized marks credential or permission failures; surfaced immediately.
	KindUnauthorized
	// KindUnavailable marks an exhausted retry budget; wraps the last underlying failure.
	KindUnavailable
	// KindPartialData marks a skipped record or branch. It is attached to results as a warning.
	KindPartialData
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	case KindPartialData:
		return "partial_data"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func InvalidArgument(op, format string, args ...any) *Error {
	return New(KindInvalidArgument, op, fmt.Errorf(format, args...))
}

func Unauthorized(op string, err error) *Error {
	return New(KindUnauthorized, op, err)
}

func Unavailable(op string, err error) *Error {
	return New(KindUnavailable, op, err)
}

// KindOf returns the kind of the outermost *Error in the chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
