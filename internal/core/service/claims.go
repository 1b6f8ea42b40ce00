package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/parkspace/parking-client/internal/core/domain"
)

// TokenClaims is the part of the token payload the client relies on.
type TokenClaims struct {
	Role     domain.Role
	Username string
	// ExpiresAt is zero when the token carries no exp claim.
	ExpiresAt time.Time
}

// DecodeTokenClaims reads the role claim from the second token segment
// (base64url JSON). The signature is not verified: the server verifies it on
// every request, the client only needs the claim to pick a view. Any failure
// means the token must be discarded.
func DecodeTokenClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	raw, _ := claims["role"].(string)
	role, err := domain.ParseRole(raw)
	if err != nil {
		return TokenClaims{}, fmt.Errorf("decode token: %w", err)
	}

	out := TokenClaims{Role: role}
	out.Username, _ = claims["username"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
