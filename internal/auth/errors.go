package auth

import "errors"

var (
	// ErrMissingKey is returned when a request carries no API key.
	ErrMissingKey = errors.New("API key is required")

	// ErrInvalidKey is returned when a key is malformed, has a bad
	// signature, has expired, or is not an API key.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrInactiveKey is returned when a key has been revoked.
	ErrInactiveKey = errors.New("API key is inactive")

	// ErrInvalidSecret is returned when the signing secret is too short.
	ErrInvalidSecret = errors.New("API key secret must be at least 32 characters")
)
