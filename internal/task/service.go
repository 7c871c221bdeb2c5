package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/domain"
)

// Scheduler accepts task ids for background execution.
type Scheduler interface {
	Submit(id uuid.UUID) error
}

// Service is the task lifecycle API used by the HTTP layer.
type Service struct {
	store     *Store
	scheduler Scheduler
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(store *Store, scheduler Scheduler, processor *BatchProcessor, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}
	if scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler", ErrNilDependency)
	}
	if processor == nil {
		return nil, fmt.Errorf("%w: processor", ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrNilDependency)
	}

	return &Service{
		store:     store,
		scheduler: scheduler,
		processor: processor,
		logger:    logger.With("component", "task_service"),
	}, nil
}

// Submit validates files, creates a pending task and schedules exactly one
// background run for it. It returns as soon as the task is queued.
func (s *Service) Submit(ctx context.Context, mode domain.Mode, files []domain.Image) (uuid.UUID, error) {
	if err := validateBatch(mode, files); err != nil {
		return uuid.Nil, err
	}

	id := s.store.Create(mode, files)

	if err := s.scheduler.Submit(id); err != nil {
		s.store.Delete(id)
		s.logger.WarnContext(ctx, "failed to schedule task", "task_id", id, "error", err)
		return uuid.Nil, fmt.Errorf("failed to schedule task: %w", err)
	}

	s.logger.InfoContext(ctx, "task submitted",
		"task_id", id,
		"mode", mode,
		"file_count", len(files))

	return id, nil
}

// Status returns the current snapshot of a task.
func (s *Service) Status(id uuid.UUID) (Task, error) {
	return s.store.Get(id)
}

// Result returns the archive of a completed task.
func (s *Service) Result(id uuid.UUID) ([]byte, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	if t.Status != TaskStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", ErrTaskNotReady, t.Status)
	}

	if len(t.Result) == 0 {
		return nil, ErrResultMissing
	}

	return t.Result, nil
}

// Delete removes a task regardless of its state.
func (s *Service) Delete(id uuid.UUID) error {
	if !s.store.Delete(id) {
		return ErrTaskNotFound
	}
	s.logger.Info("task deleted", "task_id", id)
	return nil
}

// ProcessNow transforms files on the caller's goroutine and returns the
// packed archive. It shares the per-file failure policy of background tasks.
func (s *Service) ProcessNow(ctx context.Context, mode domain.Mode, files []domain.Image) ([]byte, error) {
	if err := validateBatch(mode, files); err != nil {
		return nil, err
	}

	logger := s.logger.With("mode", mode, "sync", true)
	outputs := s.processor.TransformAll(ctx, logger, mode, files, nil)
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}

	result, err := s.processor.pack(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to build archive: %w", err)
	}

	logger.InfoContext(ctx, "synchronous batch processed",
		"succeeded", len(outputs),
		"failed", len(files)-len(outputs))
	return result, nil
}

// TransformOne transforms a single image on the caller's goroutine.
func (s *Service) TransformOne(ctx context.Context, mode domain.Mode, file domain.Image) (domain.Image, error) {
	if err := validateBatch(mode, []domain.Image{file}); err != nil {
		return domain.Image{}, err
	}
	return s.processor.transformOne(ctx, mode, file)
}

func validateBatch(mode domain.Mode, files []domain.Image) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}

	if len(files) == 0 {
		return domain.ErrEmptyBatch
	}

	var errs []error
	for _, f := range files {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
