package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
)

// Error carries a client-safe message together with its kind and, optionally,
// the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

var (
	ErrLastTracker     = &Error{Kind: ErrConflict, Message: "Cannot delete your only tracker"}
	ErrNoFields        = &Error{Kind: ErrValidation, Message: "No valid fields to update"}
	ErrInvalidAmount   = &Error{Kind: ErrValidation, Message: "Invalid amount"}
	ErrInvalidDate     = &Error{Kind: ErrValidation, Message: "Invalid date, expected YYYY-MM-DD"}
	ErrNotLoggedIn     = &Error{Kind: ErrUnauthorized, Message: "Unauthorized"}
	ErrNoActiveTracker = &Error{Kind: ErrNotFound, Message: "No active trackers found"}
)

func ValidationError(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func UnauthorizedError(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// NotFoundError reports that entity does not exist or is not owned by the caller.
func NotFoundError(entity string) error {
	return &Error{Kind: ErrNotFound, Message: entity + " not found"}
}

func ConflictError(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// StorageError wraps a persistence failure. The cause stays server-side.
func StorageError(op string, err error) error {
	return &Error{Kind: ErrStorage, Message: op, Err: err}
}

// PublicMessage returns the message that may be shown to API clients.
// Storage failures and unclassified errors collapse to a generic text.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || errors.Is(err, ErrStorage) {
		return "Internal server error"
	}
	return e.Message
}
