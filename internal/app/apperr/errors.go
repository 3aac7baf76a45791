// Package apperr is the error taxonomy shared by application services.
//
// Every error carries the HTTP status and stable code the transport layer
// renders, so handlers never need to know which service produced it.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers that branch on failure type.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindAuth          Kind = "auth"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindStorage       Kind = "storage"
	KindPersistence   Kind = "persistence"
	KindNetwork       Kind = "network"
)

type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	Details map[string]any

	// Err is the underlying cause, if any. It is never rendered to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind, and by code when the sentinel has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrAuth          = &Error{Kind: KindAuth}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrStorage       = &Error{Kind: KindStorage}
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrNetwork       = &Error{Kind: KindNetwork}
)

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func Validation(message string, details map[string]any) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: details,
	}
}

func Forbidden(message string) *Error {
	return &Error{
		Kind:    KindAuthorization,
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: message,
	}
}

func Auth(status int, code, message string) *Error {
	return &Error{
		Kind:    KindAuth,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func NotFound(code, message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Status:  http.StatusNotFound,
		Code:    code,
		Message: message,
	}
}

func Conflict(code, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Status:  http.StatusConflict,
		Code:    code,
		Message: message,
	}
}

func Storage(message string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Status:  http.StatusBadGateway,
		Code:    "STORAGE_ERROR",
		Message: message,
		Err:     err,
	}
}

func Persistence(message string, err error) *Error {
	return &Error{
		Kind:    KindPersistence,
		Status:  http.StatusInternalServerError,
		Code:    "PERSISTENCE_ERROR",
		Message: message,
		Err:     err,
	}
}

func Network(code, message string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Status:  http.StatusServiceUnavailable,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
