package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/api/shared"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/phrazzld/prodshot-api/internal/platform/logger"
	"github.com/phrazzld/prodshot-api/internal/task"
)

// TaskService is the task lifecycle API consumed by the handlers.
type TaskService interface {
	Submit(ctx context.Context, mode domain.Mode, files []domain.Image) (uuid.UUID, error)
	Status(id uuid.UUID) (task.Task, error)
	Result(id uuid.UUID) ([]byte, error)
	Delete(id uuid.UUID) error
	ProcessNow(ctx context.Context, mode domain.Mode, files []domain.Image) ([]byte, error)
	TransformOne(ctx context.Context, mode domain.Mode, file domain.Image) (domain.Image, error)
}

// TaskHandler serves the background task endpoints.
type TaskHandler struct {
	service        TaskService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service TaskService, maxUploadBytes int64, logger *slog.Logger) *TaskHandler {
	if service == nil {
		panic("service cannot be nil") // ALLOW-PANIC
	}
	if logger == nil {
		panic("logger cannot be nil") // ALLOW-PANIC
	}
	return &TaskHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "task_handler"),
	}
}

// SubmitBatch handles POST /process-parallel.
func (h *TaskHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	mode, err := parseMode(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	files, err := readUploads(w, r, "files", h.maxUploadBytes)
	if err != nil {
		log.Debug("rejected batch upload", slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return
	}

	id, err := h.service.Submit(r.Context(), mode, files)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("background task accepted",
		slog.String("task_id", id.String()),
		slog.String("mode", mode.String()),
		slog.Int("file_count", len(files)))

	shared.RespondWithJSON(w, r, http.StatusAccepted, ProcessingResponse{
		Success:   true,
		Message:   "Parallel processing started",
		FileCount: len(files),
		TaskID:    id,
	})
}

// GetStatus handles GET /tasks/{id}/status.
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	t, err := h.service.Status(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskStatusResponse(t))
}

// Download handles GET /tasks/{id}/download.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.service.Result(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithFile(w, r, "application/zip", fmt.Sprintf("processed_%s.zip", id), result)
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.service.Delete(id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("task deleted via API", slog.String("task_id", id.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
		Success: true,
		Message: fmt.Sprintf("Task %s deleted", id),
	})
}
