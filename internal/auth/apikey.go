package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/prodshot-api/internal/platform/logger"
)

const (
	tokenTypeAPIKey = "api_key"
	minSecretLength = 32
)

// Key describes the holder of a validated API key.
type Key struct {
	ID        string
	Username  string
	Admin     bool
	RateLimit int
	IssuedAt  time.Time
	// ExpiresAt is zero for keys that never expire.
	ExpiresAt time.Time
}

// IssueRequest describes a key to mint.
type IssueRequest struct {
	Username  string
	Admin     bool
	RateLimit int
	// TTL is the key lifetime; zero means the key never expires.
	TTL time.Duration
}

type apiKeyClaims struct {
	Username  string `json:"username"`
	Admin     bool   `json:"admin"`
	RateLimit int    `json:"rate_limit"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// KeyService signs and verifies API keys.
type KeyService struct {
	signingKey       []byte
	defaultRateLimit int
	timeFunc         func() time.Time
	clockSkew        time.Duration

	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewKeyService creates a KeyService signing with secret. Keys issued
// without a rate limit get defaultRateLimit requests per minute.
func NewKeyService(secret string, defaultRateLimit int) (*KeyService, error) {
	if len(secret) < minSecretLength {
		return nil, ErrInvalidSecret
	}
	if defaultRateLimit <= 0 {
		defaultRateLimit = 100
	}

	return &KeyService{
		signingKey:       []byte(secret),
		defaultRateLimit: defaultRateLimit,
		timeFunc:         time.Now,
		clockSkew:        2 * time.Minute,
		revoked:          make(map[string]struct{}),
	}, nil
}

// Issue mints a signed API key.
func (s *KeyService) Issue(ctx context.Context, req IssueRequest) (string, Key, error) {
	log := logger.FromContext(ctx)

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return "", Key{}, errors.New("username cannot be empty")
	}

	rateLimit := req.RateLimit
	if rateLimit <= 0 {
		rateLimit = s.defaultRateLimit
	}

	now := s.timeFunc()
	claims := apiKeyClaims{
		Username:  username,
		Admin:     req.Admin,
		RateLimit: rateLimit,
		TokenType: tokenTypeAPIKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.New().String(),
		},
	}
	if req.TTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(req.TTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign API key",
			"error", err,
			"username", username,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", Key{}, fmt.Errorf("failed to sign API key with HMAC-SHA256: %w", err)
	}

	return signed, claims.key(), nil
}

// Validate verifies an API key and returns its holder.
func (s *KeyService) Validate(ctx context.Context, apiKey string) (Key, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(apiKey) == "" {
		return Key{}, ErrMissingKey
	}

	now := s.timeFunc()
	token, err := jwt.ParseWithClaims(
		apiKey,
		&apiKeyClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("API key validation failed: key expired", "error", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("API key validation failed: malformed key", "error", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("API key validation failed: invalid signature", "error", err)
		default:
			log.Debug("API key validation failed", "error", err, "error_type", fmt.Sprintf("%T", err))
		}
		return Key{}, ErrInvalidKey
	}

	claims, ok := token.Claims.(*apiKeyClaims)
	if !ok || !token.Valid {
		return Key{}, ErrInvalidKey
	}
	if claims.TokenType != tokenTypeAPIKey {
		log.Debug("API key validation failed: wrong token type",
			"expected", tokenTypeAPIKey,
			"actual", claims.TokenType)
		return Key{}, ErrInvalidKey
	}
	if claims.Username == "" || claims.ID == "" {
		return Key{}, ErrInvalidKey
	}

	if s.isRevoked(claims.ID) {
		return Key{}, ErrInactiveKey
	}

	return claims.key(), nil
}

// Revoke deactivates the key with the given id for the lifetime of the process.
func (s *KeyService) Revoke(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[id] = struct{}{}
}

func (s *KeyService) isRevoked(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[id]
	return ok
}

func (c *apiKeyClaims) key() Key {
	k := Key{
		ID:        c.ID,
		Username:  c.Username,
		Admin:     c.Admin,
		RateLimit: c.RateLimit,
	}
	if c.IssuedAt != nil {
		k.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		k.ExpiresAt = c.ExpiresAt.Time
	}
	return k
}

type contextKey struct{}

// WithKey stores the authenticated key in ctx.
func WithKey(ctx context.Context, key Key) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// KeyFromContext returns the authenticated key stored in ctx.
func KeyFromContext(ctx context.Context) (Key, bool) {
	key, ok := ctx.Value(contextKey{}).(Key)
	return key, ok
}
