package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/prodshot-api/internal/api/shared"
	"github.com/phrazzld/prodshot-api/internal/auth"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/phrazzld/prodshot-api/internal/task"
)

var (
	// ErrMalformedUpload is returned when a multipart body cannot be parsed.
	ErrMalformedUpload = errors.New("malformed multipart upload")

	// ErrUploadTooLarge is returned when a request body exceeds the upload limit.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrMissingKey),
		errors.Is(err, auth.ErrInvalidKey),
		errors.Is(err, auth.ErrInactiveKey):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, task.ErrTaskNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, task.ErrTaskNotReady),
		errors.Is(err, domain.ErrEmptyBatch),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrEmptyImage),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrMalformedUpload):
		return http.StatusBadRequest

	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge

	// Capacity errors
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrRunnerStopped):
		return http.StatusServiceUnavailable

	// Default: internal server error, including task.ErrResultMissing,
	// task.ErrNoOutputs and provider failures
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrMissingKey):
		return "API key required"
	case errors.Is(err, auth.ErrInactiveKey):
		return "Inactive API key"
	case errors.Is(err, auth.ErrInvalidKey):
		return "Invalid API key"

	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, task.ErrTaskNotReady):
		return "Task not completed yet"
	case errors.Is(err, task.ErrResultMissing):
		return "Task result not available"
	case errors.Is(err, task.ErrQueueFull):
		return "Server is busy, try again later"
	case errors.Is(err, task.ErrRunnerStopped):
		return "Server is shutting down"
	case errors.Is(err, task.ErrNoOutputs):
		return "Processing failed: no files were processed successfully"

	case errors.Is(err, domain.ErrEmptyBatch):
		return "No files provided"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "Invalid image format"
	case errors.Is(err, domain.ErrInvalidMode):
		return "Invalid processing mode"
	case errors.Is(err, domain.ErrEmptyImage):
		return "Image file is empty"

	case errors.Is(err, ErrUploadTooLarge):
		return "Upload too large"
	case errors.Is(err, ErrMalformedUpload):
		return "Invalid multipart form"

	case errors.Is(err, domain.ErrValidation):
		return SanitizeValidationError(err)

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and message mapped from err and logs the
// full error. A non-empty message overrides the mapped one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'IssueKeyRequest.Username' Error:Field validation for 'Username' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "alphanum":
		return "must be alphanumeric"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
