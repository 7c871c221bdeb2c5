package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/prodshot-api/internal/api"
	apiMiddleware "github.com/phrazzld/prodshot-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	maxUpload := app.config.Server.MaxUploadBytes()
	taskHandler := api.NewTaskHandler(app.service, maxUpload, app.logger)
	processHandler := api.NewProcessHandler(app.service, maxUpload, app.logger)

	// Public endpoints
	r.Get("/", api.Root)
	r.Get("/health", api.Health)

	r.Group(func(r chi.Router) {
		if app.keys != nil {
			r.Use(apiMiddleware.NewAuthMiddleware(app.keys).Authenticate)
		}

		r.Post("/process-single", processHandler.ProcessSingle)
		r.Post("/process-batch", processHandler.ProcessBatch)
		r.Post("/process-parallel", taskHandler.SubmitBatch)

		r.Get("/tasks/{id}/status", taskHandler.GetStatus)
		r.Get("/tasks/{id}/download", taskHandler.Download)
		r.Delete("/tasks/{id}", taskHandler.Delete)

		if app.keys != nil {
			keyHandler := api.NewKeyHandler(app.keys, app.logger)
			r.With(apiMiddleware.RequireAdmin).Post("/admin/keys", keyHandler.Issue)
			r.With(apiMiddleware.RequireAdmin).Delete("/admin/keys/{id}", keyHandler.Revoke)
		}
	})

	return r
}
