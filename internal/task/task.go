package task

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/domain"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further transitions can leave s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// rank orders statuses along PENDING -> PROCESSING -> {COMPLETED, FAILED}.
func (s TaskStatus) rank() int {
	switch s {
	case TaskStatusPending:
		return 0
	case TaskStatusProcessing:
		return 1
	case TaskStatusCompleted, TaskStatusFailed:
		return 2
	default:
		return -1
	}
}

// Task is one submitted batch together with its progress and outcome.
// Values returned by the Store are snapshots; mutating them has no effect
// on the stored record.
type Task struct {
	ID     uuid.UUID
	Status TaskStatus
	Mode   domain.Mode

	// Files are the inputs captured at submission. They are released once
	// the task reaches a terminal state.
	Files []domain.Image

	TotalFiles     int
	ProcessedFiles int
	Progress       int

	// Result is the packed archive; set only when Status is completed.
	Result []byte
	// Error describes the failure; set only when Status is failed.
	Error string

	StartTime time.Time
	EndTime   time.Time
}

// Finished reports whether the task has reached a terminal state.
func (t Task) Finished() bool {
	return t.Status.IsTerminal()
}

// progressFor returns floor(index / total * 100), clamped to [0, 100].
func progressFor(index, total int) int {
	if total <= 0 {
		return 0
	}
	p := index * 100 / total
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
