// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/httpclient"
	"bistro-bff/internal/metrics"
	xerrors "bistro-bff/internal/pkg/errors"
	"bistro-bff/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Upstream auth endpoints, relative to the API base.
const (
	pathLogin       = "auth/login"
	pathLogout      = "auth/logout"
	pathRefresh     = "auth/refresh-token"
	pathGuestLogin  = "guest/auth/login"
	pathGuestLogout = "guest/auth/logout"
)

// LoginLimiter throttles credential guessing.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	GetRemainingAttempts(ctx context.Context, ip, email string) (int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

// RevocationList remembers refresh tokens ended by logout.
type RevocationList interface {
	RevokeRefreshToken(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Result is an upstream reply to echo back plus the token pair it carried.
type Result struct {
	Status int
	Body   []byte
	Pair   auth.TokenPair
}

// AuthService proxies the session endpoints to the upstream API. It holds no
// tokens itself; cookies are written by the handlers.
type AuthService struct {
	upstream *httpclient.Client
	verifier *jwt.Verifier
	limiter  LoginLimiter
	revoked  RevocationList
	logger   *zap.Logger
}

// NewAuthService wires the service. limiter and revoked may be nil when the
// BFF runs without Redis.
func NewAuthService(
	upstream *httpclient.Client,
	verifier *jwt.Verifier,
	limiter LoginLimiter,
	revoked RevocationList,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		upstream: upstream,
		verifier: verifier,
		limiter:  limiter,
		revoked:  revoked,
		logger:   logger,
	}
}

// ========== Login ==========

// Login authenticates staff credentials upstream.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest, ip string) (*Result, error) {
	if s.limiter != nil {
		allowed, remaining, err := s.limiter.CheckLoginAttempt(ctx, ip, req.Email)
		switch {
		case err != nil:
			// Redis trouble must not lock everyone out
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		case !allowed:
			metrics.LoginThrottled.Inc()
			return nil, xerrors.ErrRateLimited
		default:
			s.logger.Debug("login attempt", zap.String("ip", ip), zap.Int64("remaining", remaining))
		}
	}

	res, err := s.exchange(ctx, pathLogin, req)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}
	return res, nil
}

// RemainingAttempts reports the logins left for ip and email. ok is false
// when no limiter runs or it cannot be read.
func (s *AuthService) RemainingAttempts(ctx context.Context, ip, email string) (left int64, ok bool) {
	if s.limiter == nil {
		return 0, false
	}
	left, err := s.limiter.GetRemainingAttempts(ctx, ip, email)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.Error(err))
		return 0, false
	}
	return left, true
}

// GuestLogin registers a guest at a table.
func (s *AuthService) GuestLogin(ctx context.Context, req *auth.GuestLoginRequest) (*Result, error) {
	return s.exchange(ctx, pathGuestLogin, req)
}

// ========== Logout ==========

// Logout ends the session upstream and revokes the refresh token locally.
// The returned error is informational; callers clear cookies regardless.
func (s *AuthService) Logout(ctx context.Context, pair auth.TokenPair, guest bool) error {
	if pair.RefreshToken != "" && s.revoked != nil {
		if err := s.revoked.RevokeRefreshToken(ctx, pair.RefreshToken); err != nil {
			s.logger.Warn("failed to revoke refresh token", zap.Error(err))
		}
	}
	if pair.AccessToken == "" {
		return nil
	}

	path := pathLogout
	if guest {
		path = pathGuestLogout
	}
	_, err := s.upstream.Post(ctx, path, httpclient.Options{
		Headers: bearer(pair.AccessToken),
		Body:    auth.LogoutRequest{RefreshToken: pair.RefreshToken},
	})
	if err != nil {
		return fmt.Errorf("upstream logout: %w", err)
	}
	return nil
}

// ========== Refresh ==========

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, xerrors.ErrUnauthorized
	}
	if s.revoked != nil {
		revoked, err := s.revoked.IsRevoked(ctx, refreshToken)
		if err != nil {
			s.logger.Warn("revocation list unavailable", zap.Error(err))
		} else if revoked {
			return nil, xerrors.ErrTokenRevoked
		}
	}
	return s.exchange(ctx, pathRefresh, auth.RefreshTokenRequest{RefreshToken: refreshToken})
}

// ========== Session ==========

// Session reports who the access token belongs to. Unverifiable tokens and
// unknown roles come back unauthenticated.
func (s *AuthService) Session(accessToken string) auth.SessionInfo {
	if accessToken == "" {
		return auth.SessionInfo{}
	}
	claims, err := s.verifier.VerifyAccessToken(accessToken)
	if err != nil {
		return auth.SessionInfo{}
	}
	if _, err := auth.ParseRole(string(claims.Role)); err != nil {
		return auth.SessionInfo{}
	}
	return auth.SessionInfo{Role: claims.Role, IsAuthenticated: true}
}

func (s *AuthService) exchange(ctx context.Context, path string, body interface{}) (*Result, error) {
	res, err := s.upstream.Post(ctx, path, httpclient.Options{Body: body})
	if err != nil {
		return nil, err
	}

	var data auth.LoginData
	if err := res.Data(&data); err != nil {
		return nil, fmt.Errorf("upstream %s: %w", path, err)
	}
	pair := data.Pair()
	if !pair.Complete() {
		return nil, fmt.Errorf("upstream %s: response carried no token pair", path)
	}
	return &Result{Status: res.Status, Body: res.Payload, Pair: pair}, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
