// Package auth provides optional JWT bearer authentication. When token
// verification is disabled the service runs open and every request acts as
// the "anonymous" user, which is the default for local curation setups.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUser is the identity stamped on writes when authentication is
// disabled or no token was presented.
const AnonymousUser = "anonymous"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ClaimsKey is the context key for storing JWT claims.
const ClaimsKey contextKey = "claims"

// Claims is the JWT claims structure accepted by the service. It embeds
// RegisteredClaims for the standard fields (sub, iss, exp) and adds the
// custom identity claims.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the acting user identity for audit stamping.
// Prefers email, falls back to the token subject, then to AnonymousUser.
func UserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return AnonymousUser
	}
	if claims.Email != "" {
		return claims.Email
	}
	if claims.Subject != "" {
		return claims.Subject
	}
	return AnonymousUser
}
