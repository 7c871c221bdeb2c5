package transform

import "errors"

var (
	// ErrDecodeImage is returned when image bytes cannot be decoded.
	ErrDecodeImage = errors.New("failed to decode image")

	// ErrEncodeImage is returned when a processed image cannot be encoded.
	ErrEncodeImage = errors.New("failed to encode image")

	// ErrProviderFailure wraps errors returned by external providers.
	ErrProviderFailure = errors.New("image provider failed")

	// ErrNilDependency is returned by constructors given a nil collaborator.
	ErrNilDependency = errors.New("dependency cannot be nil")
)
