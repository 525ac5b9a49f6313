// internal/middleware/helpers.go
package middleware

import (
	"strings"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/cookies"

	"github.com/gin-gonic/gin"
)

const (
	ctxRole        = "role"
	ctxAccessToken = "access_token"
	ctxRequestID   = "request_id"
)

// extractToken prefers the access cookie and falls back to a bearer header.
func extractToken(c *gin.Context) string {
	if token := cookies.Read(c.Request).AccessToken; token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return ""
}

func setSession(c *gin.Context, info auth.SessionInfo, token string) {
	c.Set(ctxRole, info.Role)
	c.Set(ctxAccessToken, token)
}

// GetAccessToken returns the verified access token Auth accepted.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}

// GetRole gets the session role from context
func GetRole(c *gin.Context) (auth.Role, bool) {
	v, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	role, ok := v.(auth.Role)
	return role, ok
}

// GetSession rebuilds the session view set by Auth or OptionalAuth.
func GetSession(c *gin.Context) auth.SessionInfo {
	role, ok := GetRole(c)
	if !ok {
		return auth.SessionInfo{}
	}
	return auth.SessionInfo{Role: role, IsAuthenticated: true}
}

// GetRequestID returns the id assigned by LoggingMiddleware.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}
