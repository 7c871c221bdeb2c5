package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/prodshot-api/internal/archive"
	"github.com/phrazzld/prodshot-api/internal/auth"
	"github.com/phrazzld/prodshot-api/internal/config"
	"github.com/phrazzld/prodshot-api/internal/platform/gemini"
	"github.com/phrazzld/prodshot-api/internal/platform/pixian"
	"github.com/phrazzld/prodshot-api/internal/task"
	"github.com/phrazzld/prodshot-api/internal/transform"
)

// providers groups the external image services used by the pipeline.
type providers struct {
	remover    transform.BackgroundRemover
	classifier transform.Classifier
	editor     transform.ImageEditor
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	store   *task.Store
	runner  *task.TaskRunner
	sweeper *task.Sweeper
	service *task.Service

	// keys is nil when authentication is disabled.
	keys *auth.KeyService
}

// newApplication creates the provider clients and wires the application.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	pixianClient, err := pixian.NewClient(cfg.Pixian, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pixian client: %w", err)
	}
	logger.Info("background removal client initialized", "test_mode", cfg.Pixian.TestMode)

	geminiClient, err := gemini.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	logger.Info("gemini client initialized",
		"classifier_model", cfg.LLM.ClassifierModel,
		"image_model", cfg.LLM.ImageModel)

	return assembleApplication(cfg, logger, providers{
		remover:    pixianClient,
		classifier: geminiClient,
		editor:     geminiClient,
	})
}

// assembleApplication wires the task subsystem around the given providers.
func assembleApplication(cfg *config.Config, logger *slog.Logger, p providers) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		store:  task.NewStore(),
	}

	pipeline, err := transform.NewPipeline(p.remover, p.classifier, p.editor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform pipeline: %w", err)
	}

	processor, err := task.NewBatchProcessor(app.store, pipeline, archive.NewZipPacker(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch processor: %w", err)
	}

	app.runner = task.NewTaskRunner(processor, task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)

	app.sweeper = task.NewSweeper(app.store, task.SweeperConfig{
		Retention: cfg.Task.Retention(),
		Interval:  cfg.Task.SweepInterval(),
	}, logger)

	app.service, err = task.NewService(app.store, app.runner, processor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if cfg.Auth.Enabled {
		app.keys, err = auth.NewKeyService(cfg.Auth.APIKeySecret, cfg.Auth.DefaultRateLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize API key service: %w", err)
		}
		logger.Info("API key authentication enabled",
			"default_rate_limit", cfg.Auth.DefaultRateLimit)
	} else {
		logger.Warn("API key authentication disabled")
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// startBackground launches the task workers and the retention sweeper.
func (app *application) startBackground() {
	app.runner.Start()
	app.sweeper.Start()
}

// cleanup stops background work. Tasks still running are abandoned.
func (app *application) cleanup() {
	app.sweeper.Stop()
	app.runner.Stop()
	app.logger.Info("application shutdown completed", "tasks_in_memory", app.store.Len())
}
