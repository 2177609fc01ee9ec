package httpkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type AuthRequired accepts.
const TokenTypeAccess = "access"

// SignAccessToken issues an HS256 access token that AuthRequired accepts.
// Used by leadctl to mint tokens for collectors and by tests.
func SignAccessToken(secret string, userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  TokenTypeAccess,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
