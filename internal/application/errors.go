package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

// ServiceError carries the HTTP mapping for failures crossing the REST
// surface.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUpstream     = "UPSTREAM_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

func NewInvalidInputError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    "Invalid input",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    err.Error(),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewUpstreamError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUpstream,
		Message:    "Provider request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// FromDomain translates a domain error into the form the REST surface
// serves, keeping the original in the chain for errors.Is/As callers.
func FromDomain(err error) *ServiceError {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr
	}

	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		return NewInternalError(err)
	}

	switch domainErr.Code {
	case domain.ErrCodeInvalidInput:
		return NewInvalidInputError(err)
	case domain.ErrCodeRequestNotFound:
		return NewNotFoundError(err)
	case domain.ErrCodeAuthenticationFailed, domain.ErrCodeTransport:
		return NewUpstreamError(err)
	default:
		return NewInternalError(err)
	}
}
