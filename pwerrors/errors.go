// Package pwerrors defines the closed set of error kinds surfaced by the
// pathway core, per the error handling design: ingest errors abort the
// append transactionally, NotFound and validation errors are user-facing,
// StoreFailure is fatal to the operation but not the process.
package pwerrors

import (
	"errors"
	"fmt"
)

// Kind is a closed taxonomy of error categories the core can surface.
type Kind string

const (
	InvalidEnvelope       Kind = "InvalidEnvelope"
	UnknownEventKind      Kind = "UnknownEventKind"
	PayloadSchemaMismatch Kind = "PayloadSchemaMismatch"
	UnknownParent         Kind = "UnknownParent"
	SessionIDShape        Kind = "SessionIDShape"
	EventIDShape          Kind = "EventIDShape"
	SeqConflict           Kind = "SeqConflict"
	NotFound              Kind = "NotFound"
	StoreFailure          Kind = "StoreFailure"
)

// Error wraps a Kind with a message and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a pathway error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
