package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error; handlers map each kind to one HTTP status.
type Kind int

const (
	KindUpstream Kind = iota
	KindValidation
	KindAuth
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "upstream"
	}
}

// Error is returned by every service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Validation reports missing or invalid input.
func Validation(msg string) error { return newError(KindValidation, msg, nil) }

// Unauthenticated reports a missing, expired or invalid credential.
func Unauthenticated(msg string, err error) error { return newError(KindAuth, msg, err) }

// Forbidden reports an authenticated caller that may not perform the action.
func Forbidden(msg string) error { return newError(KindAuthorization, msg, nil) }

// NotFound reports a missing resource.
func NotFound(msg string) error { return newError(KindNotFound, msg, nil) }

// Upstream wraps a failure of the store or credential provider. The raw
// message is surfaced to the caller.
func Upstream(op string, err error) error {
	return newError(KindUpstream, "", fmt.Errorf("%s: %w", op, err))
}

// KindOf returns the kind of err, treating anything unclassified as upstream.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}
