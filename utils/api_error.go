package utils

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ApiError is a failure that maps onto an HTTP status and the error envelope.
type ApiError struct {
	StatusCode int
	Message    string
	Errors     []map[string]string
	Err        error
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func NewApiError(statusCode int, message string) *ApiError {
	return &ApiError{StatusCode: statusCode, Message: message}
}

func BadRequest(message string) *ApiError {
	return NewApiError(http.StatusBadRequest, message)
}

func Unauthorized(message string) *ApiError {
	return NewApiError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *ApiError {
	return NewApiError(http.StatusForbidden, message)
}

func NotFound(message string) *ApiError {
	return NewApiError(http.StatusNotFound, message)
}

func Conflict(message string) *ApiError {
	return NewApiError(http.StatusConflict, message)
}

// Internal hides err behind a generic message.
func Internal(err error) *ApiError {
	return &ApiError{StatusCode: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// ValidationFailed turns ozzo-validation field errors into a 400.
func ValidationFailed(err error) *ApiError {
	apiErr := BadRequest("Received data is not valid")
	var fields validation.Errors
	if errors.As(err, &fields) {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if fields[k] == nil {
				continue
			}
			apiErr.Errors = append(apiErr.Errors, map[string]string{k: fields[k].Error()})
		}
		return apiErr
	}
	apiErr.Message = err.Error()
	return apiErr
}

// AsApiError returns err as an ApiError, treating anything unknown as internal.
func AsApiError(err error) *ApiError {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}
