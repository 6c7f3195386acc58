package operations

import (
	"errors"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthentication  Kind = "authentication"
	KindAuthorization   Kind = "authorization"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindCardNotAssigned Kind = "card_not_assigned"
	KindStudentInactive Kind = "student_inactive"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

const internalMessage = "Internal server error"

// Error is a failure with a client-safe Message. Err carries the cause for
// logs and is never shown to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindInternal
}

// Message returns the client-safe text for err.
func Message(err error) string {
	var opErr *Error
	if errors.As(err, &opErr) && opErr.Kind != KindInternal {
		return opErr.Message
	}
	return internalMessage
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func authenticationError(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflictError(msg string, err error) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func internalError(err error) error {
	return &Error{Kind: KindInternal, Message: internalMessage, Err: err}
}
