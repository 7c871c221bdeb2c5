package api

import (
	"net/http"

	"github.com/phrazzld/prodshot-api/internal/api/shared"
)

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, RootResponse{
		Message: ServiceName,
		Version: ServiceVersion,
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy"})
}
