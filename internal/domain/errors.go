package domain

import (
	"errors"
	"fmt"
)

// Error is a typed failure surfaced to callers. Every failure in the
// request flow is logged, persisted against the tracking record when one
// exists, and then returned as one of these; nothing is retried.
type Error struct {
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

// Unwrap returns the underlying error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeTransport            = "TRANSPORT_ERROR"
	ErrCodePersistence          = "PERSISTENCE_ERROR"
	ErrCodeRequestNotFound      = "REQUEST_NOT_FOUND"
	ErrCodeInvalidInput         = "INVALID_INPUT"
)

// NewAuthenticationError names the offending setting so the caller can
// tell which credential set was rejected.
func NewAuthenticationError(setting string, err error) *Error {
	return &Error{
		Code:    ErrCodeAuthenticationFailed,
		Message: fmt.Sprintf("cannot get token with provided credentials for setting %q", setting),
		Err:     err,
	}
}

func NewTransportError(err error) *Error {
	return &Error{
		Code:    ErrCodeTransport,
		Message: "payment request failed",
		Err:     err,
	}
}

func NewPersistenceError(op string, err error) *Error {
	return &Error{
		Code:    ErrCodePersistence,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

func NewRequestNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrCodeRequestNotFound,
		Message: fmt.Sprintf("integration request %s not found", id),
	}
}

func NewInvalidInputError(err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: "invalid input",
		Err:     err,
	}
}

// IsErrorCode checks if an error is a domain Error with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
