// Package apperror defines the typed error taxonomy shared by services and
// handlers. Services decide the error kind from the failure cause; handlers
// map kinds to HTTP status codes without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors.
	UnknownError ErrorType = iota
	// DatabaseError is an infrastructure fault from the store. Not
	// user-correctable; never retried here.
	DatabaseError
	// AuthError is an authentication failure: bad credentials or an
	// invalid/expired token.
	AuthError
	// ForbiddenError means the requester is authenticated but is not the
	// author of the resource.
	ForbiddenError
	// NotFoundError means the resource or its parent does not exist.
	NotFoundError
	// ConflictError means a uniqueness constraint was violated, e.g. a
	// taken username. User-correctable.
	ConflictError
	// BadRequestError is a malformed or incomplete request, including a
	// missing auth token.
	BadRequestError
	// InternalError is a generic server fault.
	InternalError
)

// AppError carries the error kind, a user-facing message, and an optional
// underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error type. Ownership
// violations map to 401 rather than 403; the API does not distinguish the two.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case AuthError, ForbiddenError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case BadRequestError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewDatabaseError(message string, err error) *AppError {
	return New(DatabaseError, message, err)
}

func NewAuthError(message string, err error) *AppError {
	return New(AuthError, message, err)
}

func NewForbiddenError(message string, err error) *AppError {
	return New(ForbiddenError, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

func NewBadRequestError(message string, err error) *AppError {
	return New(BadRequestError, message, err)
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return isType(err, NotFoundError) }

// IsAuthError reports whether err is an AuthError.
func IsAuthError(err error) bool { return isType(err, AuthError) }

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool { return isType(err, ForbiddenError) }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return isType(err, ConflictError) }

// IsBadRequest reports whether err is a BadRequestError.
func IsBadRequest(err error) bool { return isType(err, BadRequestError) }
