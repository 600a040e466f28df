package toolerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can tell failures apart from
// empty-but-successful results.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindInvalidArgument Kind = "invalid_argument"
	KindTransport       Kind = "transport_error"
	KindAuth            Kind = "auth_error"
	KindParse           Kind = "parse_error"
	KindDecode          Kind = "decode_error"
	KindEmptyInput      Kind = "empty_input"
	KindInternal        Kind = "internal_error"
)

// Error is a classified failure
type Error struct {
	Kind    Kind   // Failure class
	Message string // Human-readable description
	Err     error  // Underlying cause, may be nil
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
// This lets callers write errors.Is(err, toolerr.ErrEmptyInput).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// New creates a new classified error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new classified error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is matching on kind alone
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrTransport       = &Error{Kind: KindTransport}
	ErrAuth            = &Error{Kind: KindAuth}
	ErrParse           = &Error{Kind: KindParse}
	ErrDecode          = &Error{Kind: KindDecode}
	ErrEmptyInput      = &Error{Kind: KindEmptyInput}
)

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing text for err without the kind prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return err.Error()
}

// Retryable reports whether the failure is transient. Only transport errors
// qualify; auth failures are a transport failure that never heals on retry.
func Retryable(err error) bool {
	return KindOf(err) == KindTransport
}
