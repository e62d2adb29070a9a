package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned when a 401 could not be cured by a refresh.
var ErrSessionExpired = errors.New("session expired")

// APIError is a failure envelope returned by the server.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// serverError marks 5xx responses as failures for the circuit breaker.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server responded %d", e.status)
}
