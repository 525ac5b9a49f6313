// Package cookies owns the httpOnly cookie pair that carries the session on
// the BFF side.
package cookies

import (
	"fmt"
	"net/http"
	"time"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/jwt"
)

type Config struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// DefaultConfig is what production runs with.
func DefaultConfig() Config {
	return Config{Secure: true, SameSite: http.SameSiteLaxMode}
}

// Pair is the raw cookie values of a request; either may be empty.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

type Gateway struct {
	cfg      Config
	verifier *jwt.Verifier
}

func NewGateway(cfg Config, verifier *jwt.Verifier) *Gateway {
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &Gateway{cfg: cfg, verifier: verifier}
}

// SetAuthCookies verifies both tokens and writes one cookie per token, each
// expiring with its own verified exp claim. Nothing is written unless both
// verify.
func (g *Gateway) SetAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) error {
	access, err := g.verifier.VerifyAccessToken(accessToken)
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	refresh, err := g.verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if access.ExpiresAtTime().After(refresh.ExpiresAtTime()) {
		return &jwt.InvalidTokenError{Err: fmt.Errorf("access token outlives refresh token")}
	}

	http.SetCookie(w, g.cookie(auth.AccessTokenKey, accessToken, access.ExpiresAtTime()))
	http.SetCookie(w, g.cookie(auth.RefreshTokenKey, refreshToken, refresh.ExpiresAtTime()))
	return nil
}

// ClearAuthCookies expires both cookies. Safe to call with no session.
func (g *Gateway) ClearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenKey, auth.RefreshTokenKey} {
		c := g.cookie(name, "", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// Read returns the cookie values on r.
func (g *Gateway) Read(r *http.Request) Pair {
	return Read(r)
}

func Read(r *http.Request) Pair {
	var p Pair
	if c, err := r.Cookie(auth.AccessTokenKey); err == nil {
		p.AccessToken = c.Value
	}
	if c, err := r.Cookie(auth.RefreshTokenKey); err == nil {
		p.RefreshToken = c.Value
	}
	return p
}

func (g *Gateway) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   g.cfg.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: g.cfg.SameSite,
	}
}
