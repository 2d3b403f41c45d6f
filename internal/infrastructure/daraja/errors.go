package daraja

import (
	"errors"
	"fmt"
)

// DarajaError is a non-2xx answer from the provider.
type DarajaError struct {
	RequestID  string
	Code       string
	Message    string
	StatusCode int
}

type darajaErrorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (e *DarajaError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("daraja error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("daraja error: %s (status: %d)", e.Message, e.StatusCode)
}

func IsDarajaError(err error) (*DarajaError, bool) {
	var darajaErr *DarajaError
	ok := errors.As(err, &darajaErr)
	return darajaErr, ok
}
