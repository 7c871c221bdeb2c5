package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/prodshot-api/internal/api/shared"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/phrazzld/prodshot-api/internal/platform/logger"
)

// BatchArchiveName is the attachment name of synchronous batch results.
const BatchArchiveName = "processed_images.zip"

// ProcessHandler serves the synchronous processing endpoints.
type ProcessHandler struct {
	service        TaskService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(service TaskService, maxUploadBytes int64, logger *slog.Logger) *ProcessHandler {
	if service == nil {
		panic("service cannot be nil") // ALLOW-PANIC
	}
	if logger == nil {
		panic("logger cannot be nil") // ALLOW-PANIC
	}
	return &ProcessHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "process_handler"),
	}
}

// ProcessSingle handles POST /process-single. The transformed image is
// returned as an attachment.
func (h *ProcessHandler) ProcessSingle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	mode, err := parseMode(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	files, err := readUploads(w, r, "file", h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if len(files) > 1 {
		log.Debug("ignoring extra files on single upload", slog.Int("file_count", len(files)))
	}

	out, err := h.service.TransformOne(r.Context(), mode, files[0])
	if err != nil {
		if MapErrorToStatusCode(err) >= http.StatusInternalServerError {
			HandleAPIError(w, r, err, "Processing failed")
			return
		}
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("single image processed",
		slog.String("mode", mode.String()),
		slog.String("input", files[0].Name),
		slog.String("output", out.Name))

	contentType := out.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeFor(out.Name)
	}
	shared.RespondWithFile(w, r, contentType, out.Name, out.Data)
}

// ProcessBatch handles POST /process-batch. All files are processed before
// the response is written; files that fail are left out of the archive.
func (h *ProcessHandler) ProcessBatch(w http.ResponseWriter, r *http.Request) {
	mode, err := parseMode(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	files, err := readUploads(w, r, "files", h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	archive, err := h.service.ProcessNow(r.Context(), mode, files)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithFile(w, r, "application/zip", BatchArchiveName, archive)
}
