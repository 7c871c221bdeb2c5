package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/phrazzld/prodshot-api/internal/task"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// getPathUUID extracts a UUID from the URL path parameters.
// Missing or malformed ids are reported as task.ErrTaskNotFound so that an
// unknown id and an unparseable one look the same to clients.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", task.ErrTaskNotFound, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", task.ErrTaskNotFound, paramName)
	}

	return id, nil
}

// parseMode reads the processing mode from the query string. An explicit
// mode parameter wins over the white_bg flag, which defaults to true.
func parseMode(r *http.Request) (domain.Mode, error) {
	q := r.URL.Query()
	if raw := q.Get("mode"); raw != "" {
		return domain.ParseMode(raw)
	}

	raw := q.Get("white_bg")
	if raw == "" {
		return domain.ModeWhite, nil
	}
	whiteBG, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: white_bg must be a boolean", domain.ErrValidation)
	}
	return domain.ModeFromWhiteBG(whiteBG), nil
}

// readUploads parses a multipart body of at most maxBytes and returns the
// files sent under field, in submission order. The first invalid file fails
// the whole request.
func readUploads(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) ([]domain.Image, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, tooLarge.Limit)
		}
		// Older multipart readers flatten the MaxBytesError into a string.
		if strings.Contains(err.Error(), "request body too large") {
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, maxBytes)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	images := make([]domain.Image, 0, len(headers))
	for _, fh := range headers {
		// Reject bad names before reading any content.
		if err := domain.ValidateImageName(fh.Filename); err != nil {
			return nil, err
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open %s: %v", ErrMalformedUpload, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrMalformedUpload, fh.Filename, err)
		}

		img, err := domain.NewImage(fh.Filename, data)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, nil
}
