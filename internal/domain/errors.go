package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when an input fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyBatch is returned when a batch contains no files.
	ErrEmptyBatch = errors.New("no files provided")

	// ErrUnsupportedFormat is returned when a file extension is not an accepted image format.
	ErrUnsupportedFormat = errors.New("invalid image format")

	// ErrInvalidMode is returned when a processing mode is not recognised.
	ErrInvalidMode = errors.New("invalid processing mode")

	// ErrEmptyImage is returned when an uploaded image has no content.
	ErrEmptyImage = errors.New("image content cannot be empty")
)
