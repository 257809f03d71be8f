package places

import (
	"errors"
	"fmt"
)

// Kind classifies every error returned by the places package.
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindNotFound      Kind = "NotFoundError"
	KindAuthorization Kind = "AuthorizationError"
	KindDatabase      Kind = "DatabaseError"
)

// DuplicateMessage is shown to callers when (name, city) is already taken.
const DuplicateMessage = "a place with this name already exists in this city"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("place not found")
	// ErrDuplicate is returned by stores on a (name, city) unique violation.
	ErrDuplicate = errors.New("duplicate place name and city")
)

// Error is the single error type surfaced by Repository, SearchEngine and Service.
// Message is safe to show to end users; Err holds the underlying cause.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Duplicate reports whether the error is a (name, city) uniqueness violation.
func (e *Error) Duplicate() bool {
	return e != nil && e.Kind == KindDatabase && errors.Is(e.Err, ErrDuplicate)
}

// KindOf returns the kind of err, or "" when err is nil or not a *Error.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}

// IsDuplicate reports whether err carries a uniqueness violation.
func IsDuplicate(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Duplicate()
}

func validationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func notFoundError(message string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}

func authorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// storeError converts a store failure into a DatabaseError.
func storeError(action string, err error) *Error {
	if errors.Is(err, ErrDuplicate) {
		return &Error{Kind: KindDatabase, Message: DuplicateMessage, Err: err}
	}
	return &Error{Kind: KindDatabase, Message: "failed to " + action, Err: err}
}
