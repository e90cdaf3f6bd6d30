// Package auth verifies bearer tokens issued by the collaborator identity
// service. Token issuance (login, refresh, sessions) happens elsewhere; this
// service only validates access tokens and extracts the acting user.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/stocktrace/stocktrace-backend/pkg/actor"
	"github.com/stocktrace/stocktrace-backend/pkg/config"
	"github.com/stocktrace/stocktrace-backend/pkg/errors"
)

// Claims represents the access token claims this service understands
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Verifier validates access tokens
type Verifier struct {
	config *config.JWTConfig
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg *config.JWTConfig) *Verifier {
	return &Verifier{config: cfg}
}

// VerifyAccessToken validates an access token and returns the claims
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(v.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}

// Actor converts verified claims into an actor for audit fields
func (c *Claims) Actor() *actor.Actor {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return &actor.Actor{
		ID:       id,
		Name:     c.Name,
		Email:    c.Email,
		RoleName: c.Role,
	}
}
