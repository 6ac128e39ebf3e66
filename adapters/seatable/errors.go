package seatable

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingServerURL is returned when the server URL is not specified
	ErrMissingServerURL = errors.New("server URL is required")
	// ErrMissingAPIToken is returned when the API token is not specified
	ErrMissingAPIToken = errors.New("API token is required")
	// ErrUnauthorized is returned when SeaTable rejects the token
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError represents a non-2xx response from SeaTable
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("seatable API error (status %d) from %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.StatusCode == 401 || e.StatusCode == 403)
}

// Temporary reports whether the request may succeed when retried
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
