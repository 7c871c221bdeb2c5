package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Processor executes a single task by id.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID)
}

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many tasks are processed concurrently
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// TaskRunner manages background task processing.
// Submitted task ids are buffered in a bounded queue and consumed by a fixed
// set of worker goroutines; Submit never blocks.
type TaskRunner struct {
	processor  Processor
	taskChan   chan uuid.UUID
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger

	mu      sync.RWMutex
	stopped bool
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(processor Processor, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	defaults := DefaultTaskRunnerConfig()
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", defaults.WorkerCount)
		config.WorkerCount = defaults.WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TaskRunner{
		processor:  processor,
		taskChan:   make(chan uuid.UUID, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "task_runner"),
	}
}

// Submit schedules exactly one run of the task with the given id.
func (r *TaskRunner) Submit(id uuid.UUID) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		return ErrRunnerStopped
	}

	select {
	case r.taskChan <- id:
		r.logger.Debug("task enqueued",
			"task_id", id,
			"queue_len", len(r.taskChan),
			"queue_cap", cap(r.taskChan))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(r.taskChan))
	}
}

// Start launches the worker goroutines.
func (r *TaskRunner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)
}

// Stop cancels in-flight work, waits for the workers to exit and rejects
// further submissions. Tasks still queued are left pending.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped", "abandoned_in_queue", len(r.taskChan))
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case taskID := <-r.taskChan:
			r.processTask(taskID, id)
		}
	}
}

// processTask runs one task, shielding the worker from panics.
func (r *TaskRunner) processTask(taskID uuid.UUID, workerID int) {
	logger := r.logger.With("task_id", taskID, "worker_id", workerID)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("task processor panicked",
				"panic", rec,
				"stack", string(debug.Stack()))
		}
	}()

	logger.Debug("processing task")
	r.processor.Process(r.ctx, taskID)
}
