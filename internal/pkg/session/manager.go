// internal/pkg/session/manager.go
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"bistro-bff/internal/pkg/jwt"
)

// Manager keeps the list of refresh tokens revoked by logout so a captured
// cookie cannot be replayed against /api/auth/refresh-token before it expires.
type Manager struct {
	client blacklistClient
	now    func() time.Time
}

func NewManager(client blacklistClient) *Manager {
	return &Manager{client: client, now: time.Now}
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return m.client.Set(ctx, m.blacklistKey(token), "1", ttl).Err()
}

// RevokeRefreshToken blacklists a refresh token until its own exp. Tokens
// that are already expired or unreadable need no entry.
func (m *Manager) RevokeRefreshToken(ctx context.Context, token string) error {
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return nil
	}
	ttl := claims.Remaining(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.BlacklistToken(ctx, token, ttl)
}

// IsRevoked is IsTokenBlacklisted under the name the auth service expects.
func (m *Manager) IsRevoked(ctx context.Context, token string) (bool, error) {
	return m.IsTokenBlacklisted(ctx, token)
}

// Keys are derived from a digest; the raw token never lands in Redis.
func (m *Manager) blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:refresh:" + hex.EncodeToString(sum[:])
}
