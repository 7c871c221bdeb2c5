package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/archive"
	"github.com/phrazzld/prodshot-api/internal/domain"
)

// Transformer converts a single input image according to mode.
type Transformer interface {
	Transform(ctx context.Context, mode domain.Mode, img domain.Image) (domain.Image, error)
}

// BatchProcessor drives one task from pending to a terminal state.
type BatchProcessor struct {
	store       *Store
	transformer Transformer
	packer      archive.Packer
	logger      *slog.Logger
}

// NewBatchProcessor creates a BatchProcessor writing through store.
func NewBatchProcessor(
	store *Store,
	transformer Transformer,
	packer archive.Packer,
	logger *slog.Logger,
) (*BatchProcessor, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilDependency)
	}
	if transformer == nil {
		return nil, fmt.Errorf("%w: transformer", ErrNilDependency)
	}
	if packer == nil {
		return nil, fmt.Errorf("%w: packer", ErrNilDependency)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger", ErrNilDependency)
	}

	return &BatchProcessor{
		store:       store,
		transformer: transformer,
		packer:      packer,
		logger:      logger.With("component", "batch_processor"),
	}, nil
}

// Process runs the task with the given id to completion.
//
// Progress is written before each file is handed to the transformer, so it
// reflects attempts started: file i of n is attempted at floor(i/n*100)
// percent and only the completed transition reports 100. A failing file is
// logged and skipped. The task completes when at least one file produced an
// output and fails otherwise. Process never panics.
func (p *BatchProcessor) Process(ctx context.Context, id uuid.UUID) {
	logger := p.logger.With("task_id", id)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing task",
				"panic", r,
				"stack", string(debug.Stack()))
			p.store.SetError(id, fmt.Sprintf("Background processing error: %v", r))
		}
	}()

	t, err := p.store.Get(id)
	if err != nil {
		logger.Warn("task disappeared before processing started", "error", err)
		return
	}

	if t.Status != TaskStatusPending {
		logger.Warn("refusing to process task that is not pending", "status", t.Status)
		return
	}

	logger = logger.With("mode", t.Mode)
	if !p.store.UpdateStatus(id, TaskStatusProcessing) {
		logger.Warn("task could not be moved to processing")
		return
	}

	logger.Info("starting background processing", "total_files", t.TotalFiles)

	outputs := p.TransformAll(ctx, logger, t.Mode, t.Files, func(index int) bool {
		return p.store.UpdateStatus(id, TaskStatusProcessing,
			WithProgress(progressFor(index, t.TotalFiles)),
			WithProcessedFiles(index))
	})

	// every file has been attempted
	if !p.store.UpdateStatus(id, TaskStatusProcessing, WithProcessedFiles(t.TotalFiles)) {
		logger.Warn("task was removed or finished during processing", "succeeded", len(outputs))
		return
	}

	if len(outputs) == 0 {
		msg := fmt.Sprintf("Background processing error: %v (0 of %d files)", ErrNoOutputs, t.TotalFiles)
		logger.Error("task failed", "error", msg)
		p.store.SetError(id, msg)
		return
	}

	result, err := p.pack(outputs)
	if err != nil {
		logger.Error("failed to build archive", "error", err)
		p.store.SetError(id, fmt.Sprintf("Background processing error: %v", err))
		return
	}

	if !p.store.SetResult(id, result) ||
		!p.store.UpdateStatus(id, TaskStatusCompleted, WithProgress(100)) {
		logger.Warn("task was removed or finished before its result could be stored")
		return
	}

	logger.Info("background processing completed",
		"succeeded", len(outputs),
		"failed", t.TotalFiles-len(outputs),
		"archive_bytes", len(result))
}

// TransformAll transforms files strictly in order and returns the outputs of
// the files that succeeded. beforeEach, when non-nil, is called with the
// zero-based index of each file before it is transformed; returning false
// stops the loop before that file.
func (p *BatchProcessor) TransformAll(
	ctx context.Context,
	logger *slog.Logger,
	mode domain.Mode,
	files []domain.Image,
	beforeEach func(index int) bool,
) []domain.Image {
	outputs := make([]domain.Image, 0, len(files))

	for i, file := range files {
		if beforeEach != nil && !beforeEach(i) {
			logger.Info("stopping before file, task is no longer processing",
				"file_index", i+1, "file_count", len(files))
			break
		}

		fileLogger := logger.With("file_index", i+1, "file_count", len(files), "file_name", file.Name)
		fileLogger.Info("processing file")

		out, err := p.transformOne(ctx, mode, file)
		if err != nil {
			fileLogger.Error("failed to process file", "error", err)
			continue
		}

		fileLogger.Debug("file processed", "output_name", out.Name, "output_bytes", len(out.Data))
		outputs = append(outputs, out)
	}

	return outputs
}

// pack wraps outputs as archive entries and packs them.
func (p *BatchProcessor) pack(outputs []domain.Image) ([]byte, error) {
	entries := make([]archive.Entry, 0, len(outputs))
	for _, out := range outputs {
		entries = append(entries, archive.Entry{Name: out.Name, Data: out.Data})
	}
	return p.packer.Pack(entries)
}

// transformOne converts a panic inside the transformer into a per-file error.
func (p *BatchProcessor) transformOne(ctx context.Context, mode domain.Mode, file domain.Image) (out domain.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transformer panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.Image{}, err
	}

	out, err = p.transformer.Transform(ctx, mode, file)
	if err != nil {
		return domain.Image{}, err
	}
	if len(out.Data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: transformer returned no data", domain.ErrEmptyImage)
	}
	return out, nil
}
