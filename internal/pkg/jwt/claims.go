// internal/pkg/jwt/claims.go
package jwt

import (
	"time"

	"bistro-bff/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessTokenType  TokenType = "AccessToken"
	RefreshTokenType TokenType = "RefreshToken"
)

// Claims is the payload the upstream API signs into both tokens.
type Claims struct {
	UserID    int64     `json:"userId,omitempty"`
	Role      auth.Role `json:"role"`
	TokenType TokenType `json:"tokenType,omitempty"`
	jwt.RegisteredClaims
}

// IssuedAtTime returns iat, zero when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, zero when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Lifetime is exp - iat.
func (c *Claims) Lifetime() time.Duration {
	return c.ExpiresAtTime().Sub(c.IssuedAtTime())
}

// Remaining is how long the token stays valid after now; negative once expired.
func (c *Claims) Remaining(now time.Time) time.Duration {
	return c.ExpiresAtTime().Sub(now)
}

// ExpiredAt reports whether exp has passed at now.
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt == nil || !now.Before(c.ExpiresAt.Time)
}
