// Package apperr classifies the failures the time tracker can surface to the user.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind string

const (
	KindConnection        Kind = "CONNECTION"         // transport or auth failure reaching Redmine
	KindNotFound          Kind = "NOT_FOUND"          // id unknown to Redmine
	KindValidation        Kind = "VALIDATION"         // Redmine rejected the payload
	KindLocalPrecondition Kind = "LOCAL_PRECONDITION" // rejected before any request was sent
	KindInternal          Kind = "INTERNAL"
)

// Error is a classified failure. Op names the operation that failed,
// Status carries the HTTP status when there was one.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConnection wraps a transport failure.
func NewConnection(op string, err error) *Error {
	return &Error{Kind: KindConnection, Op: op, Err: err}
}

// NewUnauthorized reports a rejected API key.
func NewUnauthorized(op string, status int) *Error {
	return &Error{
		Kind:    KindConnection,
		Op:      op,
		Status:  status,
		Message: fmt.Sprintf("authentication failed (HTTP %d), check the API key", status),
	}
}

// NewNotFound reports an entity id that the remote does not know.
func NewNotFound(op, entity string, id int) *Error {
	return &Error{
		Kind:    KindNotFound,
		Op:      op,
		Status:  404,
		Message: fmt.Sprintf("%s #%d not found", entity, id),
	}
}

// NewValidation reports a payload rejected by the remote.
func NewValidation(op string, status int, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Status: status, Message: msg}
}

// NewPrecondition reports an operation rejected locally.
func NewPrecondition(op, msg string) *Error {
	return &Error{Kind: KindLocalPrecondition, Op: op, Message: msg}
}

// NewInternal wraps an unexpected failure.
func NewInternal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// Message returns the user-facing text of err without the op/kind prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
