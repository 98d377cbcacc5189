package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Middleware attaches an identity to each request. With verification
// enabled it requires a valid bearer token; disabled, it passes every
// request through as AnonymousUser.
type Middleware struct {
	validator TokenValidator
	enabled   bool
	logger    *zap.Logger
}

// NewMiddleware creates a new auth middleware. validator may be nil when
// enabled is false.
func NewMiddleware(validator TokenValidator, enabled bool, logger *zap.Logger) *Middleware {
	return &Middleware{
		validator: validator,
		enabled:   enabled,
		logger:    logger.Named("auth"),
	}
}

// Identify wraps a handler, populating the request context with claims.
func (m *Middleware) Identify(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next(w, r)
			return
		}

		tokenString, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}

		claims, err := m.validator.ValidateToken(tokenString)
		if err != nil {
			m.logger.Debug("Token rejected", zap.Error(err))
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	}); err != nil {
		m.logger.Error("Failed to write unauthorized response", zap.Error(err))
	}
}
