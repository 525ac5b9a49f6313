// internal/pkg/jwt/generator.go
package jwt

import (
	"fmt"
	"time"

	"bistro-bff/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Generator signs HS256 token pairs the same way the upstream API does.
// The BFF never issues tokens itself; this exists for fixtures and local stubs.
type Generator struct {
	secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewGenerator(secret []byte, accessTTL, refreshTTL time.Duration) *Generator {
	return &Generator{
		secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

// Sign signs arbitrary claims.
func (g *Generator) Sign(claims *Claims) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("jwt generator has empty secret")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// GeneratePair issues an access/refresh pair. The access token never outlives
// the refresh token.
func (g *Generator) GeneratePair(userID int64, role auth.Role) (auth.TokenPair, error) {
	now := g.Now()
	refreshExp := now.Add(g.RefreshTTL)
	accessExp := now.Add(g.AccessTTL)
	if accessExp.After(refreshExp) {
		accessExp = refreshExp
	}

	access, err := g.Sign(g.claims(userID, role, AccessTokenType, now, accessExp))
	if err != nil {
		return auth.TokenPair{}, err
	}
	refresh, err := g.Sign(g.claims(userID, role, RefreshTokenType, now, refreshExp))
	if err != nil {
		return auth.TokenPair{}, err
	}
	return auth.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (g *Generator) claims(userID int64, role auth.Role, typ TokenType, iat, exp time.Time) *Claims {
	return &Claims{
		UserID:    userID,
		Role:      role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        ulid.Make().String(),
		},
	}
}
