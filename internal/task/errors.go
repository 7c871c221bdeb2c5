package task

import "errors"

// Common errors returned by the task package
var (
	// ErrTaskNotFound is returned when no task exists for an id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotReady is returned when a result is requested before the
	// task has completed.
	ErrTaskNotReady = errors.New("task not completed yet")

	// ErrResultMissing is returned when a completed task has no archive.
	ErrResultMissing = errors.New("task result not available")

	// ErrQueueFull is returned when the runner cannot accept more tasks.
	ErrQueueFull = errors.New("task queue is full")

	// ErrRunnerStopped is returned when submitting to a stopped runner.
	ErrRunnerStopped = errors.New("task runner is stopped")

	// ErrNoOutputs is returned when no file of a batch could be processed.
	ErrNoOutputs = errors.New("no files were processed successfully")

	// ErrNilDependency is returned by constructors given a nil collaborator.
	ErrNilDependency = errors.New("dependency cannot be nil")
)
