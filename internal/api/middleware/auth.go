package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/prodshot-api/internal/api/shared"
	"github.com/phrazzld/prodshot-api/internal/auth"
	"golang.org/x/time/rate"
)

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "X-API-Key"

// KeyValidator verifies API keys.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (auth.Key, error)
}

// AuthMiddleware authenticates requests by API key and enforces each
// key's per-minute rate limit.
type AuthMiddleware struct {
	validator KeyValidator

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(validator KeyValidator) *AuthMiddleware {
	if validator == nil {
		panic("validator cannot be nil") // ALLOW-PANIC
	}
	return &AuthMiddleware{
		validator: validator,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Authenticate validates the X-API-Key header and adds the key holder to the
// request context for authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)
		if apiKey == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "API key required")
			return
		}

		key, err := m.validator.Validate(r.Context(), apiKey)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInactiveKey):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Inactive API key", err, shared.WithElevatedLogLevel())
			case errors.Is(err, auth.ErrInvalidKey), errors.Is(err, auth.ErrMissingKey):
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized,
					"Invalid API key", err, shared.WithElevatedLogLevel())
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
					"Authentication error", err)
			}
			return
		}

		if !m.limiterFor(key).Allow() {
			w.Header().Set("Retry-After", "60")
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Rate limit exceeded", errors.New("rate limit exceeded for key "+key.ID))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithKey(r.Context(), key)))
	})
}

// RequireAdmin rejects requests whose key is not an admin key. It must run
// after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.KeyFromContext(r.Context())
		if !ok {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "API key required")
			return
		}
		if !key.Admin {
			shared.RespondWithError(w, r, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterFor returns the token bucket for key, allowing RateLimit requests
// per minute with a burst of the same size.
func (m *AuthMiddleware) limiterFor(key auth.Key) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, ok := m.limiters[key.ID]
	if ok {
		return limiter
	}

	perMinute := key.RateLimit
	if perMinute <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}
	m.limiters[key.ID] = limiter
	return limiter
}

// GetKey extracts the authenticated key from the request context.
func GetKey(r *http.Request) (auth.Key, bool) {
	return auth.KeyFromContext(r.Context())
}
