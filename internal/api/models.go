package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/task"
)

// ServiceName and ServiceVersion are reported by the root endpoint.
const (
	ServiceName    = "Image Processing API"
	ServiceVersion = "2.0.0"
)

// RootResponse describes the service.
type RootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// ProcessingResponse is returned when a background task is accepted.
type ProcessingResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	FileCount int       `json:"file_count"`
	TaskID    uuid.UUID `json:"task_id"`
}

// TaskStatusResponse is the polling view of a task.
type TaskStatusResponse struct {
	TaskID         uuid.UUID  `json:"task_id"`
	Status         string     `json:"status"`
	Mode           string     `json:"mode"`
	Progress       int        `json:"progress"`
	ProcessedFiles int        `json:"processed_files"`
	TotalFiles     int        `json:"total_files"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Error          *string    `json:"error"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// IssueKeyRequest is the payload for minting an API key.
type IssueKeyRequest struct {
	Username  string `json:"username"   validate:"required,min=3,max=64"`
	IsAdmin   bool   `json:"is_admin"`
	RateLimit int    `json:"rate_limit" validate:"omitempty,min=1,max=100000"`
	// TTLHours is the key lifetime in hours; zero means the key never expires.
	TTLHours int `json:"ttl_hours" validate:"omitempty,min=1"`
}

// IssueKeyResponse carries a freshly minted API key.
type IssueKeyResponse struct {
	Username  string     `json:"username"`
	KeyID     string     `json:"key_id"`
	APIKey    string     `json:"api_key"`
	RateLimit int        `json:"rate_limit"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Message   string     `json:"message"`
}

func newTaskStatusResponse(t task.Task) TaskStatusResponse {
	resp := TaskStatusResponse{
		TaskID:         t.ID,
		Status:         string(t.Status),
		Mode:           t.Mode.String(),
		Progress:       t.Progress,
		ProcessedFiles: t.ProcessedFiles,
		TotalFiles:     t.TotalFiles,
		StartTime:      t.StartTime,
	}
	if !t.EndTime.IsZero() {
		end := t.EndTime
		resp.EndTime = &end
	}
	if t.Error != "" {
		msg := t.Error
		resp.Error = &msg
	}
	return resp
}
