package pixian

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when the client is constructed with
	// incomplete configuration.
	ErrInvalidConfig = errors.New("invalid pixian configuration")

	// ErrProviderFailure is returned when the API rejects a request.
	ErrProviderFailure = errors.New("pixian request failed")

	// ErrEmptyResponse is returned when the API answers 200 with no body.
	ErrEmptyResponse = errors.New("pixian returned an empty image")
)

// StatusError describes a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: status %d", ErrProviderFailure, e.StatusCode)
	}
	return fmt.Sprintf("%v: status %d: %s", ErrProviderFailure, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrProviderFailure.
func (e *StatusError) Unwrap() error {
	return ErrProviderFailure
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
