// Package apperr classifies failures so callers branch on kind instead of
// matching messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
	KindStore         Kind = "store"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(code, message string) error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NotFound wraps cause (usually a service sentinel) so errors.Is keeps
// matching it.
func NotFound(code, message string, cause error) error {
	return &Error{Kind: KindNotFound, Code: code, Message: message, Err: cause}
}

func Forbidden(code, message string, cause error) error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message, Err: cause}
}

func Store(message string, cause error) error {
	return &Error{Kind: KindStore, Code: "STORE_ERROR", Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain. Unclassified
// errors are reported as store failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// CodeOf returns the machine-readable code for err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return "INTERNAL"
}

// Public returns a message safe to show to the caller. Store failures never
// expose their cause.
func Public(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong"
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
