package gemini

import "errors"

var (
	// ErrInvalidConfig is returned when the client cannot be configured.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrInvalidResponse is returned when a response lacks the expected content.
	ErrInvalidResponse = errors.New("invalid response from gemini")

	// ErrContentBlocked is returned when the safety filters stopped generation.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyImage is returned when an input image has no data.
	ErrEmptyImage = errors.New("image data cannot be empty")
)
