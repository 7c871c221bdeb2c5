package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/prodshot-api/internal/api/shared"
	"github.com/phrazzld/prodshot-api/internal/auth"
	"github.com/phrazzld/prodshot-api/internal/domain"
	"github.com/phrazzld/prodshot-api/internal/platform/logger"
)

// KeyIssuer mints and revokes API keys.
type KeyIssuer interface {
	Issue(ctx context.Context, req auth.IssueRequest) (string, auth.Key, error)
	Revoke(id string)
}

// KeyHandler serves the API key administration endpoints.
type KeyHandler struct {
	issuer KeyIssuer
	logger *slog.Logger
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(issuer KeyIssuer, logger *slog.Logger) *KeyHandler {
	if issuer == nil {
		panic("issuer cannot be nil") // ALLOW-PANIC
	}
	if logger == nil {
		panic("logger cannot be nil") // ALLOW-PANIC
	}
	return &KeyHandler{
		issuer: issuer,
		logger: logger.With("component", "key_handler"),
	}
}

// Issue handles POST /admin/keys.
func (h *KeyHandler) Issue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req IssueKeyRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err), "")
		return
	}

	apiKey, key, err := h.issuer.Issue(r.Context(), auth.IssueRequest{
		Username:  req.Username,
		Admin:     req.IsAdmin,
		RateLimit: req.RateLimit,
		TTL:       time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to issue API key")
		return
	}

	if issuer, ok := auth.KeyFromContext(r.Context()); ok {
		log = log.With(slog.String("issued_by", issuer.Username))
	}
	log.Info("API key issued",
		slog.String("key_id", key.ID),
		slog.String("username", key.Username),
		slog.Bool("admin", key.Admin))

	resp := IssueKeyResponse{
		Username:  key.Username,
		KeyID:     key.ID,
		APIKey:    apiKey,
		RateLimit: key.RateLimit,
		Message:   "API key created successfully",
	}
	if !key.ExpiresAt.IsZero() {
		exp := key.ExpiresAt
		resp.ExpiresAt = &exp
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Revoke handles DELETE /admin/keys/{id}.
func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Key id is required")
		return
	}

	h.issuer.Revoke(id)
	log.Info("API key revoked", slog.String("key_id", id))

	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{
		Success: true,
		Message: fmt.Sprintf("API key %s revoked", id),
	})
}
