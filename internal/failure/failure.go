// Package failure defines the tagged error type returned by gateway and session operations.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation did not produce a result.
type Kind int

const (
	// KindInternal is an unexpected fault, or an error not produced by this package.
	KindInternal Kind = iota
	// KindInvalid is a malformed argument such as an empty context name.
	KindInvalid
	// KindPrefix is a command that does not start with the required trusted-tool token.
	KindPrefix
	// KindPolicy is a command rejected by the authorization policy.
	KindPolicy
	// KindExec is an external process that exited non-zero or could not be started.
	KindExec
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindPrefix:
		return "prefix"
	case KindPolicy:
		return "policy"
	case KindExec:
		return "exec"
	default:
		return "internal"
	}
}

// Error is a classified failure. Msg is what callers see; Err is the cause, if any.
type Error struct {
	Err  error
	Msg  string
	Kind Kind
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}

	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
