package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates a JWT token string and returns its claims.
// The abstraction exists so middleware tests can stub validation.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// JWKSClient validates JWT signatures against the public keys published at
// a JWKS endpoint.
type JWKSClient struct {
	keys keyfunc.Keyfunc
}

// NewJWKSClient fetches the key set from jwksURL and returns a validator
// backed by it.
func NewJWKSClient(ctx context.Context, jwksURL string) (*JWKSClient, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return &JWKSClient{keys: keys}, nil
}

var _ TokenValidator = (*JWKSClient)(nil)

// ValidateToken verifies the token's RSA signature and standard claims.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.keys.KeyfuncCtx(context.Background())(token)
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
