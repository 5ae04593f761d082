package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenRequest describes a token to mint with IssueToken.
type TokenRequest struct {
	Subject  string
	Email    string
	Roles    []string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// IssueToken signs an HS256 token that JWTMiddleware accepts with the same
// key, issuer and audience.
func IssueToken(key []byte, req TokenRequest) (string, error) {
	if len(key) == 0 {
		return "", fmt.Errorf("signing key is empty")
	}
	if req.TTL == 0 {
		req.TTL = time.Hour
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Subject,
			Issuer:    req.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(req.TTL)),
		},
		Email: req.Email,
		Roles: req.Roles,
	}
	if req.Audience != "" {
		claims.Audience = jwt.ClaimStrings{req.Audience}
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
